package service

import (
	"context"
	"testing"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func privateMessage(from domain.User, messageID int, text string) domain.InboundMessage {
	return domain.InboundMessage{
		MessageID: messageID,
		ChatID:    from.ID,
		ChatType:  domain.ChatTypePrivate,
		From:      from,
		Text:      text,
	}
}

func adminReply(messageID, replyTo int, text string) domain.InboundMessage {
	msg := privateMessage(domain.User{ID: adminID, FirstName: "Admin"}, messageID, text)
	msg.ReplyToID = &replyTo
	return msg
}

func TestForwardToAdmin_NotBound(t *testing.T) {
	f := newFixture(t)

	err := f.relay.ForwardToAdmin(context.Background(), privateMessage(user(42, "ann"), 7, "hi"))
	assert.ErrorIs(t, err, domain.ErrNotBound)
	assert.Empty(t, f.tg.Sent)
}

func TestRelay_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bindAdmin(t)

	require.NoError(t, f.relay.ForwardToAdmin(ctx, privateMessage(user(42, "ann"), 7, "hi")))

	toAdmin := f.tg.To(adminID)
	require.Len(t, toAdmin, 2)
	copied, label := toAdmin[0], toAdmin[1]
	assert.Equal(t, int64(42), copied.CopiedFrom)
	assert.Equal(t, 7, copied.CopiedID)
	assert.Equal(t, copied.ID, label.Msg.ReplyTo)
	assert.Contains(t, label.Msg.Text, "@ann")
	assert.Contains(t, label.Msg.Text, "42")

	for i, target := range []int{copied.ID, label.ID} {
		mapping, err := f.relay.ReplyToOrigin(ctx, adminReply(100+i, target, "hello back"))
		require.NoError(t, err)
		assert.Equal(t, int64(42), mapping.OriginChatID)
		assert.Equal(t, 7, mapping.OriginMessageID)
	}

	delivered := f.tg.To(42)
	require.Len(t, delivered, 2)
	assert.Equal(t, int64(adminID), delivered[0].CopiedFrom)
	assert.Equal(t, 100, delivered[0].CopiedID)
	assert.Equal(t, 7, delivered[0].Msg.ReplyTo)

	logged := f.store.Messages(42)
	require.Len(t, logged, 2)
	assert.Equal(t, domain.MessageOutgoing, logged[0].Direction)
	assert.Equal(t, delivered[0].ID, logged[0].MessageID)
	assert.Equal(t, "hello back", logged[0].Text)
}

func TestReplyToOrigin_UnknownMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bindAdmin(t)

	_, err := f.relay.ReplyToOrigin(ctx, adminReply(5, 999, "who?"))
	assert.ErrorIs(t, err, domain.ErrOriginNotFound)
	assert.Empty(t, f.tg.Sent)
	assert.Empty(t, f.store.Messages(adminID))
}

func TestForwardToAdmin_DeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bindAdmin(t)
	f.tg.Block(adminID)

	err := f.relay.ForwardToAdmin(ctx, privateMessage(user(42, "ann"), 7, "hi"))
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
	assert.ErrorIs(t, err, domain.ErrBotBlocked)
}

func TestReplyToOrigin_SenderBlockedBot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bindAdmin(t)
	require.NoError(t, f.relay.ForwardToAdmin(ctx, privateMessage(user(42, "ann"), 7, "hi")))
	copied := f.tg.To(adminID)[0]
	f.tg.Block(42)

	_, err := f.relay.ReplyToOrigin(ctx, adminReply(100, copied.ID, "still there?"))
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
	assert.Empty(t, f.store.Messages(42))
}
