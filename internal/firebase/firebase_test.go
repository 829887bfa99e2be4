package firebase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.UserRecord), args.Error(1)
}

func (m *MockAuthClient) DeleteUser(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func (m *MockAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

type fakeMessaging struct {
	calls     [][]string
	failIndex map[int]bool
}

func (f *fakeMessaging) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.calls = append(f.calls, msg.Tokens)
	resp := &messaging.BatchResponse{}
	for i := range msg.Tokens {
		if f.failIndex[i] {
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: false, Error: errors.New("transient")})
			resp.FailureCount++
			continue
		}
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: fmt.Sprintf("m-%d", i)})
		resp.SuccessCount++
	}
	return resp, nil
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	client := new(MockAuthClient)
	creds := &Credentials{client: client}

	client.On("CreateUser", ctx, mock.Anything).Return(&auth.UserRecord{UserInfo: &auth.UserInfo{UID: "fb-1"}}, nil)
	uid, hash, err := creds.CreateCredential(ctx, "a@clan.gg", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", uid)
	assert.Empty(t, hash)

	client.On("DeleteUser", ctx, "fb-1").Return(nil)
	assert.NoError(t, creds.DeleteCredential(ctx, "fb-1"))

	client.On("VerifyIDToken", ctx, "good").Return(&auth.Token{UID: "fb-1"}, nil)
	client.On("VerifyIDToken", ctx, "bad").Return(nil, errors.New("expired"))
	uid, err = creds.VerifyIDToken(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", uid)
	_, err = creds.VerifyIDToken(ctx, "bad")
	assert.Error(t, err)
}

func TestPushSender_Batches(t *testing.T) {
	tokens := make([]string, maxMulticastTokens+3)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
	}
	client := &fakeMessaging{failIndex: map[int]bool{1: true}}
	sender := &PushSender{client: client}

	invalid, err := sender.Send(context.Background(), tokens, "Rental approved", "ticket #1", map[string]string{"type": "RENTAL_APPROVED"})
	require.NoError(t, err)
	require.Len(t, client.calls, 2)
	assert.Len(t, client.calls[0], maxMulticastTokens)
	assert.Len(t, client.calls[1], 3)
	assert.Empty(t, invalid)
}
