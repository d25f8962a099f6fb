package mailer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nepkart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLoader is a mock implementation of Loader.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// MockSender is a mock implementation of Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func testOrder() *model.Order {
	return &model.Order{
		ID:          42,
		OrderNumber: "2026083042",
		FirstName:   "Sita",
		LastName:    "Sharma",
		Email:       "sita@example.com",
		OrderTotal:  252.50,
	}
}

func TestMailer_SendOrderConfirmation(t *testing.T) {
	loader := new(MockLoader)
	sender := new(MockSender)
	m := New(loader, sender, zerolog.Nop())

	loader.On("Load", mock.Anything, orderTemplateName).
		Return("Hello {{.Order.FirstName}}, order {{.Order.OrderNumber}} received.", nil)

	var sentBody string
	sender.On("Send", mock.Anything, "sita@example.com", orderSubject, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentBody = args.String(3) }).
		Return(nil)

	err := m.SendOrderConfirmation(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, "Hello Sita, order 2026083042 received.", sentBody)
	sender.AssertExpectations(t)
}

func TestMailer_SendOrderConfirmation_LoaderFailureUsesDefault(t *testing.T) {
	loader := new(MockLoader)
	sender := new(MockSender)
	m := New(loader, sender, zerolog.Nop())

	loader.On("Load", mock.Anything, orderTemplateName).Return("", errors.New("bucket unreachable"))

	var sentBody string
	sender.On("Send", mock.Anything, "sita@example.com", orderSubject, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentBody = args.String(3) }).
		Return(nil)

	err := m.SendOrderConfirmation(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Contains(t, sentBody, "Dear Sita Sharma")
	assert.Contains(t, sentBody, "2026083042")
	assert.Contains(t, sentBody, "252.50")
}

func TestMailer_SendOrderConfirmation_SenderFailure(t *testing.T) {
	loader := new(MockLoader)
	sender := new(MockSender)
	m := New(loader, sender, zerolog.Nop())

	loader.On("Load", mock.Anything, orderTemplateName).Return("body", nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mail API returned status 500"))

	err := m.SendOrderConfirmation(context.Background(), testOrder())

	assert.Error(t, err)
}

func TestFileLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.tmpl"), []byte("hello"), 0o644))

	loader := NewFileLoader(dir, zerolog.Nop())

	text, err := loader.Load(context.Background(), "greeting.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = loader.Load(context.Background(), "missing.tmpl")
	assert.Error(t, err)
}

func TestFallbackLoader_S3First(t *testing.T) {
	s3 := new(MockLoader)
	file := new(MockLoader)
	loader := NewFallbackLoader(s3, file, "templates/", true, zerolog.Nop())

	s3.On("Load", mock.Anything, "templates/order_received.tmpl").Return("from s3", nil)

	text, err := loader.Load(context.Background(), "order_received.tmpl")

	require.NoError(t, err)
	assert.Equal(t, "from s3", text)
	file.AssertNotCalled(t, "Load")
}

func TestFallbackLoader_FallsBackToFile(t *testing.T) {
	s3 := new(MockLoader)
	file := new(MockLoader)
	loader := NewFallbackLoader(s3, file, "templates/", true, zerolog.Nop())

	s3.On("Load", mock.Anything, "templates/order_received.tmpl").Return("", errors.New("access denied"))
	file.On("Load", mock.Anything, "order_received.tmpl").Return("from disk", nil)

	text, err := loader.Load(context.Background(), "order_received.tmpl")

	require.NoError(t, err)
	assert.Equal(t, "from disk", text)
}

func TestFallbackLoader_S3Disabled(t *testing.T) {
	s3 := new(MockLoader)
	file := new(MockLoader)
	loader := NewFallbackLoader(s3, file, "templates/", false, zerolog.Nop())

	file.On("Load", mock.Anything, "order_received.tmpl").Return("from disk", nil)

	text, err := loader.Load(context.Background(), "order_received.tmpl")

	require.NoError(t, err)
	assert.Equal(t, "from disk", text)
	s3.AssertNotCalled(t, "Load")
}
