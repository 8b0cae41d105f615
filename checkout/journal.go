package checkout

import (
	"context"
	"time"

	"bilhete/db"
	"bilhete/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Journal records checkout sessions for the payment-history view and support
// lookups. Kept behind an interface so the orchestrator tests run without a
// database.
type Journal interface {
	Insert(ctx context.Context, sess models.CheckoutSession) error
	SetOutcome(ctx context.Context, sessionID, state, message, paymentID string) error
}

type mongoJournal struct{}

// NewMongoJournal stores sessions in the checkout_sessions collection.
func NewMongoJournal() Journal {
	return mongoJournal{}
}

func (mongoJournal) Insert(ctx context.Context, sess models.CheckoutSession) error {
	_, err := db.CheckoutSessionsCollection.InsertOne(ctx, sess)
	return err
}

func (mongoJournal) SetOutcome(ctx context.Context, sessionID, state, message, paymentID string) error {
	_, err := db.CheckoutSessionsCollection.UpdateOne(ctx,
		bson.M{"sessionId": sessionID},
		bson.M{"$set": bson.M{
			"state":     state,
			"message":   message,
			"paymentId": paymentID,
			"updatedAt": time.Now(),
		}},
	)
	return err
}
