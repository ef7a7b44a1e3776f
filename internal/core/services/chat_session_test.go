package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
)

func TestChatSessionService_Create(t *testing.T) {
	f := newFixture(t)

	session, err := f.chatSessions.Create(context.Background(), "u", "  ")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSessionTitle, session.Title)
	assert.NotEmpty(t, session.ID)

	named, err := f.chatSessions.Create(context.Background(), "u", "Budget review")
	require.NoError(t, err)
	assert.Equal(t, "Budget review", named.Title)

	_, err = f.chatSessions.Create(context.Background(), "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatSessionService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.chatSessions.Create(ctx, "u", "older")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = f.chatSessions.Create(ctx, "u", "newer")
	require.NoError(t, err)
	_, err = f.chatSessions.Create(ctx, "someone-else", "hidden")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	f.sessionContext.Append(ctx, "u", older.ID, domain.RoleUser, "bump")

	sessions, err := f.chatSessions.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "older", sessions[0].Title)
	assert.Equal(t, "newer", sessions[1].Title)
}

func TestChatSessionService_Messages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sessionContext.Append(ctx, "u", "s1", domain.RoleUser, "first")
	f.sessionContext.Append(ctx, "u", "s1", domain.RoleAssistant, "second")
	f.sessionContext.Append(ctx, "u", "s1", domain.RoleUser, "third")

	msgs, err := f.chatSessions.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)

	msgs, err = f.chatSessions.Messages(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestChatSessionService_UpdateTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.chatSessions.Create(ctx, "u", "")
	require.NoError(t, err)

	updated, err := f.chatSessions.UpdateTitle(ctx, session.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	_, err = f.chatSessions.UpdateTitle(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.chatSessions.UpdateTitle(ctx, session.ID, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatSessionService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.chatSessions.Create(ctx, "u", "")
	require.NoError(t, err)
	f.sessionContext.Append(ctx, "u", session.ID, domain.RoleUser, "hello")

	require.NoError(t, f.chatSessions.Delete(ctx, session.ID))

	assert.Empty(t, f.messages.Messages(session.ID))
	assert.Empty(t, f.sessionContext.Window(ctx, session.ID))
	_, err = f.sessions.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.chatSessions.Delete(ctx, session.ID), domain.ErrNotFound)
}

func TestChatSessionService_GenerateTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.chatSessions.Create(ctx, "u", "")
	require.NoError(t, err)

	_, err = f.chatSessions.GenerateTitle(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no user message yet")

	f.sessionContext.Append(ctx, "u", session.ID, domain.RoleUser, "How do refunds work?")
	f.llm.CompleteText = `  "Refund Process Overview"  `

	titled, err := f.chatSessions.GenerateTitle(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refund Process Overview", titled.Title)

	prompts := f.llm.Prompts()
	require.NotEmpty(t, prompts)
	assert.Contains(t, prompts[len(prompts)-1], "\"How do refunds work?\"")
	assert.Contains(t, prompts[len(prompts)-1], "(3-6 words)")

	f.llm.CompleteText = strings.Repeat("w", 60)
	titled, err = f.chatSessions.GenerateTitle(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("w", 47)+"...", titled.Title)
}

func TestChatSessionService_GenerateTitle_ProviderError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.chatSessions.Create(ctx, "u", "")
	require.NoError(t, err)
	f.sessionContext.Append(ctx, "u", session.ID, domain.RoleUser, "hello")
	f.llm.CompleteFn = func(string) (string, error) { return "", errors.New("rate limited") }

	_, err = f.chatSessions.GenerateTitle(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}
