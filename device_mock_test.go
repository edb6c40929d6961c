package romfs

// Hand-written in the shape github.com/golang/mock/mockgen would
// generate for Device (mockgen is a code generator; there is no
// generated file checked in here, so this plays that role directly).

import (
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockDevice is a mock of the Device interface.
type MockDevice struct {
	ctrl     *gomock.Controller
	recorder *MockDeviceMockRecorder
}

// MockDeviceMockRecorder is the mock recorder for MockDevice.
type MockDeviceMockRecorder struct {
	mock *MockDevice
}

// NewMockDevice creates a new mock instance.
func NewMockDevice(ctrl *gomock.Controller) *MockDevice {
	mock := &MockDevice{ctrl: ctrl}
	mock.recorder = &MockDeviceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockDevice) EXPECT() *MockDeviceMockRecorder {
	return m.recorder
}

func (m *MockDevice) Sectors() int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Sectors")
	ret0, _ := ret[0].(int)
	return ret0
}

func (mr *MockDeviceMockRecorder) Sectors() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Sectors", reflect.TypeOf((*MockDevice)(nil).Sectors))
}

func (m *MockDevice) Erase(s int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Erase", s)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockDeviceMockRecorder) Erase(s interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Erase", reflect.TypeOf((*MockDevice)(nil).Erase), s)
}

func (m *MockDevice) Program(s int, buf []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Program", s, buf)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockDeviceMockRecorder) Program(s, buf interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Program", reflect.TypeOf((*MockDevice)(nil).Program), s, buf)
}

func (m *MockDevice) Read(s, off int, buf []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Read", s, off, buf)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockDeviceMockRecorder) Read(s, off, buf interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Read", reflect.TypeOf((*MockDevice)(nil).Read), s, off, buf)
}
