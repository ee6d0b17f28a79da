// Package firestore implements the profile and task stores on Google Cloud
// Firestore.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
)

// ProfileStore implements dispatch.ProfileStore over the users collection.
// The document ID is the authentication subject ID, so token lookups are
// single-document point reads.
type ProfileStore struct {
	client *firestore.Client
}

func NewProfileStore(client *firestore.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

// profileDoc is the internal DB representation. Only the token field is read
// by this service; name and email belong to the client app.
type profileDoc struct {
	Name     string `firestore:"name,omitempty"`
	Email    string `firestore:"email,omitempty"`
	FCMToken string `firestore:"fcmToken,omitempty"`
}

func (s *ProfileStore) FetchToken(ctx context.Context, userID string) (string, error) {
	doc, err := s.userRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", dispatch.ErrProfileNotFound
		}
		return "", fmt.Errorf("profile read for %s failed: %w", userID, err)
	}

	var profile profileDoc
	if err := doc.DataTo(&profile); err != nil {
		return "", fmt.Errorf("profile decode for %s failed: %w", userID, err)
	}
	if profile.FCMToken == "" {
		return "", dispatch.ErrNoToken
	}
	return profile.FCMToken, nil
}

// SaveToken upserts the token field, leaving the rest of the profile alone.
// The client app calls this whenever FCM rotates the device token.
func (s *ProfileStore) SaveToken(ctx context.Context, userID string, token string) error {
	_, err := s.userRef(userID).Set(ctx, map[string]interface{}{"fcmToken": token}, firestore.MergeAll)
	return err
}

func (s *ProfileStore) ClearToken(ctx context.Context, userID string) error {
	_, err := s.userRef(userID).Update(ctx, []firestore.Update{
		{Path: "fcmToken", Value: firestore.Delete},
	})
	if err != nil && status.Code(err) == codes.NotFound {
		// Nothing to clear.
		return nil
	}
	return err
}

func (s *ProfileStore) userRef(userID string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(userID)
}
