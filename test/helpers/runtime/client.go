package runtime

import (
	"context"

	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// FakeClient records reads and fails them with Error when it is set.
type FakeClient struct {
	client.Client
	Error error

	read []client.ObjectKey
}

func NewServerTimeoutException() *errors.StatusError {
	return errors.NewServerTimeout(schema.GroupResource{Resource: "secrets"}, "get", 1)
}

func NewFakeClient(client client.Client, err error) *FakeClient {
	return &FakeClient{
		Client: client,
		Error:  err,
	}
}

func (fc *FakeClient) WasRead(name string) bool {
	for _, key := range fc.read {
		if key.Name == name {
			return true
		}
	}
	return false
}

func (fc *FakeClient) Get(ctx context.Context, key client.ObjectKey, obj client.Object) error {
	fc.read = append(fc.read, key)
	if fc.Error != nil {
		return fc.Error
	}
	return fc.Client.Get(ctx, key, obj)
}
