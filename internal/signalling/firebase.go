package signalling

import (
	"context"
	"fmt"
	"time"

	"dropwire/internal/config"
	"dropwire/pkg/utils"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	answerPollInterval = 5 * time.Second
	answerPollAttempts = 24 // two minutes
)

// Session represents a signaling session record.
// Vanilla ICE only: the offer and answer each carry their full candidate set.
type Session struct {
	ID     string `json:"sessionId"`
	Offer  string `json:"offer"`
	Answer string `json:"answer"`
}

// FirebaseClient stores signalling sessions in a Firebase Realtime Database,
// keyed by short share codes.
type FirebaseClient struct {
	db  *db.Client
	ref *db.Ref
}

func NewFirebaseClient(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseClient, error) {
	opt := option.WithCredentialsFile(cfg.CredentialsPath)

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseClient{
		db:  client,
		ref: client.NewRef("sessions"),
	}, nil
}

func (f *FirebaseClient) CreateSession(ctx context.Context, offer string) (string, error) {
	code, err := utils.GenerateCode(8)
	if err != nil {
		return "", fmt.Errorf("error generating session code: %w", err)
	}

	sessionRef := f.ref.Child(code)
	sessionData := map[string]any{
		"sessionId": code,
		"offer":     offer,
		"answer":    "",
	}
	if err := sessionRef.Set(ctx, sessionData); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	logrus.WithField("session_id", code).Debug("Session created")
	return code, nil
}

func (f *FirebaseClient) GetOffer(ctx context.Context, sessionID string) (string, error) {
	session, err := f.getSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.Offer == "" {
		return "", fmt.Errorf("session %s has no offer", sessionID)
	}
	return session.Offer, nil
}

func (f *FirebaseClient) UpdateAnswer(ctx context.Context, sessionID, answer string) error {
	if _, err := f.getSession(ctx, sessionID); err != nil {
		return err
	}

	updates := map[string]any{
		"answer": answer,
	}
	if err := f.ref.Child(sessionID).Update(ctx, updates); err != nil {
		return fmt.Errorf("error updating answer for session %s: %w", sessionID, err)
	}
	return nil
}

func (f *FirebaseClient) WaitForAnswer(ctx context.Context, sessionID string) (string, error) {
	if _, err := f.getSession(ctx, sessionID); err != nil {
		return "", err
	}

	logrus.Info("Waiting for receiver to answer...")

	sessionRef := f.ref.Child(sessionID)
	for i := 0; i < answerPollAttempts; i++ {
		var sessionData struct {
			Answer string `json:"answer"`
		}
		if err := sessionRef.Get(ctx, &sessionData); err != nil {
			logrus.WithError(err).Warn("Error polling for answer")
		} else if sessionData.Answer != "" {
			return sessionData.Answer, nil
		}

		select {
		case <-time.After(answerPollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err := f.DeleteSession(ctx, sessionID); err != nil {
		logrus.WithError(err).Warn("Failed to delete expired session")
	}
	return "", fmt.Errorf("timeout waiting for answer")
}

func (f *FirebaseClient) DeleteSession(ctx context.Context, sessionID string) error {
	if err := f.ref.Child(sessionID).Delete(ctx); err != nil {
		return fmt.Errorf("error deleting session %s: %w", sessionID, err)
	}
	return nil
}

func (f *FirebaseClient) getSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := f.ref.Child(sessionID).Get(ctx, &session); err != nil {
		return nil, fmt.Errorf("error reading session %s: %w", sessionID, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return &session, nil
}
