// Package mocks provides gomock implementations of the ports interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockClientStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "client-1", "auth").Return("", ports.ErrNotFound)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=client_store_mock.go github.com/epharmacy/locator-web/internal/ports ClientStore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_provider_mock.go github.com/epharmacy/locator-web/internal/ports AuthProvider
