package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPublisher_DisabledWithoutBrokers(t *testing.T) {
	p := NewPublisher(kafka.NewClient(""), "sales", "settlements", zap.NewNop())
	_, ok := p.(NopPublisher)
	require.True(t, ok)

	assert.NoError(t, p.PublishSale(context.Background(), "k", NewEvent(EventSaleCompleted, uuid.New(), nil)))
	assert.NoError(t, p.PublishSettlement(context.Background(), "k", NewEvent(EventSettlementConfirmed, uuid.New(), nil)))
}

func TestNewPublisher_KafkaWhenConfigured(t *testing.T) {
	p := NewPublisher(kafka.NewClient("localhost:9092"), "sales", "settlements", zap.NewNop())
	_, ok := p.(*KafkaPublisher)
	assert.True(t, ok)
}

func TestNewEvent(t *testing.T) {
	branch := uuid.New()
	a := NewEvent(EventSaleRefunded, branch, map[string]string{"invoice_no": "INV-1"})
	b := NewEvent(EventSaleRefunded, branch, nil)

	assert.Equal(t, EventSaleRefunded, a.Type)
	assert.Equal(t, branch, a.BranchID)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.False(t, a.CreatedAt.IsZero())
}
