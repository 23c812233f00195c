package account_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*auth.Principal, error) {
	args := m.Called(ctx, username, password)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id int64) (*auth.Principal, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTargets struct {
	mock.Mock
}

func (m *MockTargets) Tenant(ctx context.Context) dbrouter.Target {
	return m.Called(ctx).Get(0).(dbrouter.Target)
}

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Login(outcome string) {
	m.Called(outcome)
}
