package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestMessageDeduper_FirstSeen(t *testing.T) {
	ttl := 10 * time.Minute

	tests := []struct {
		name   string
		setup  func(mock redismock.ClientMock)
		expect bool
	}{
		{
			name: "new message",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSetNX("eventbot:seen:discord:m1", 1, ttl).SetVal(true)
			},
			expect: true,
		},
		{
			name: "redelivered message",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSetNX("eventbot:seen:discord:m1", 1, ttl).SetVal(false)
			},
			expect: false,
		},
		{
			name: "redis error fails open",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSetNX("eventbot:seen:discord:m1", 1, ttl).SetErr(errors.New("connection refused"))
			},
			expect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			tt.setup(mock)

			deduper := NewMessageDeduper(db, ttl)

			assert.Equal(t, tt.expect, deduper.FirstSeen(context.Background(), "discord", "m1"))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMessageDeduper_EmptyIDSkipsRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	deduper := NewMessageDeduper(db, time.Minute)

	assert.True(t, deduper.FirstSeen(context.Background(), "telegram", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageDeduper_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	assert.NoError(t, NewMessageDeduper(db, time.Minute).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
