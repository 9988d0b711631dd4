package kafka

import (
	"errors"
	"testing"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIdentitySwitcher struct {
	mock.Mock
}

func (s *MockIdentitySwitcher) Login(deviceID string, user domain.User) {
	s.Called(deviceID, user)
}

func (s *MockIdentitySwitcher) Logout(deviceID string) {
	s.Called(deviceID)
}

func TestIdentityEventCodec(t *testing.T) {
	t.Run("EncodeInvalidType", func(t *testing.T) {
		c := newIdentityEventCodec(new(MockSerde))
		_, err := c.Encode("user")
		assert.ErrorIs(t, err, ErrInvalidValueType)
	})

	t.Run("Encode", func(t *testing.T) {
		serde := new(MockSerde)
		event := schema.IdentityEventV1{DeviceID: "device", UserID: "user"}
		serde.On("Encode", event).Return([]byte("encoded"), nil)

		b, err := newIdentityEventCodec(serde).Encode(event)
		require.NoError(t, err)
		assert.Equal(t, []byte("encoded"), b)
	})

	t.Run("Decode", func(t *testing.T) {
		serde := new(MockSerde)
		serde.On("Decode", []byte("data"), mock.AnythingOfType("*schema.IdentityEventV1")).
			Run(func(args mock.Arguments) {
				v := args.Get(1).(*schema.IdentityEventV1)
				v.DeviceID = "device"
				v.UserID = "user"
			}).
			Return(nil)

		v, err := newIdentityEventCodec(serde).Decode([]byte("data"))
		require.NoError(t, err)
		assert.Equal(t, schema.IdentityEventV1{DeviceID: "device", UserID: "user"}, v)
	})

	t.Run("DecodeFailed", func(t *testing.T) {
		serde := new(MockSerde)
		decodeErr := errors.New("bad magic byte")
		serde.On("Decode", mock.Anything, mock.Anything).Return(decodeErr)

		_, err := newIdentityEventCodec(serde).Decode([]byte("data"))
		assert.ErrorIs(t, err, decodeErr)
	})
}

func TestIdentityProcessorApply(t *testing.T) {
	const user = "3b0f1c52-8d7e-4f0a-9c1b-2e6d5a4f7b90"

	t.Run("Login", func(t *testing.T) {
		switcher := new(MockIdentitySwitcher)
		p := &IdentityProcessor{opPrefix: "test", switcher: switcher}
		switcher.On("Login", "device", domain.User{ID: user}).Return()

		persist := p.apply("device", "", schema.IdentityEventV1{UserID: user})
		assert.True(t, persist)
		switcher.AssertExpectations(t)
	})

	t.Run("SameUser", func(t *testing.T) {
		switcher := new(MockIdentitySwitcher)
		p := &IdentityProcessor{opPrefix: "test", switcher: switcher}
		switcher.On("Login", "device", domain.User{ID: user}).Return()

		persist := p.apply("device", user, schema.IdentityEventV1{UserID: user})
		assert.False(t, persist)
	})

	t.Run("Logout", func(t *testing.T) {
		switcher := new(MockIdentitySwitcher)
		p := &IdentityProcessor{opPrefix: "test", switcher: switcher}
		switcher.On("Logout", "device").Return()

		persist := p.apply("device", user, schema.IdentityEventV1{})
		assert.True(t, persist)
		switcher.AssertExpectations(t)
	})

	t.Run("KeylessUsesBody", func(t *testing.T) {
		switcher := new(MockIdentitySwitcher)
		p := &IdentityProcessor{opPrefix: "test", switcher: switcher}
		switcher.On("Login", "device", domain.User{ID: user}).Return()

		p.apply("", "", schema.IdentityEventV1{DeviceID: "device", UserID: user})
		switcher.AssertExpectations(t)
	})

	t.Run("InvalidUser", func(t *testing.T) {
		switcher := new(MockIdentitySwitcher)
		p := &IdentityProcessor{opPrefix: "test", switcher: switcher}

		persist := p.apply("device", "", schema.IdentityEventV1{UserID: "bob"})
		assert.False(t, persist)
		switcher.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("NoDevice", func(t *testing.T) {
		switcher := new(MockIdentitySwitcher)
		p := &IdentityProcessor{opPrefix: "test", switcher: switcher}

		persist := p.apply("", "", schema.IdentityEventV1{UserID: user})
		assert.False(t, persist)
		switcher.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}
