package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"formchat-be/internal/dto"
	"formchat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "CONVERSATION_TURN"

func startConsumer(t *testing.T, db *memDB) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = pubSub.Close()
	})

	cs := NewConsumerService(pubSub, testTopic, db, logger.NewNopLogger(), logger.NewNopLogger())
	require.NoError(t, cs.Consume(ctx))
	return pubSub
}

func TestConsumer_PersistsTurns(t *testing.T) {
	db := newMemDB()
	pubSub := startConsumer(t, db)
	publisher := NewPublisherService(testTopic, pubSub)

	payload, err := json.Marshal(dto.PublishTurnMessage{
		SessionId:   "s1",
		UserId:      testUser,
		StageFrom:   "idle",
		StageTo:     "filling",
		Intent:      "form_filling",
		UserMessage: "I need to report an incident",
		Response:    "What is the name?",
		OccurredAt:  time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	require.Eventually(t, func() bool { return db.logCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "s1", db.logs[0].SessionId)
	assert.Equal(t, "form_filling", db.logs[0].Intent)
}

func TestConsumer_AcksInvalidMessages(t *testing.T) {
	db := newMemDB()
	cs := NewConsumerService(nil, testTopic, db, logger.NewNopLogger(), logger.NewNopLogger()).(*consumerService)

	for _, raw := range []string{"not json", `{"session_id":"s1","user_id":"nope"}`} {
		msg := message.NewMessage(watermill.NewUUID(), []byte(raw))
		cs.processMessage(context.Background(), msg)

		select {
		case <-msg.Acked():
		default:
			t.Fatalf("%q was not acked", raw)
		}
	}
	assert.Zero(t, db.logCount())
}

func TestConsumer_NacksOnStoreFailure(t *testing.T) {
	db := newMemDB()
	db.failLogs = errors.New("db down")
	cs := NewConsumerService(nil, testTopic, db, logger.NewNopLogger(), logger.NewNopLogger()).(*consumerService)

	payload, _ := json.Marshal(dto.PublishTurnMessage{SessionId: "s1", UserId: testUser})
	msg := message.NewMessage(watermill.NewUUID(), payload)
	cs.processMessage(context.Background(), msg)

	select {
	case <-msg.Nacked():
	default:
		t.Fatal("expected nack")
	}
}
