package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/events"
)

// RegisterInput is the account to create. Profile carries role specific
// fields (specialization, licenseNumber, address, ...) sent alongside the
// common ones.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Profile  map[string]any
}

// MarshalJSON flattens Profile into the request body.
func (in RegisterInput) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(in.Profile)+4)
	for k, v := range in.Profile {
		body[k] = v
	}
	body["fullName"] = in.FullName
	body["email"] = in.Email
	body["password"] = in.Password
	if in.Phone != "" {
		body["phone"] = in.Phone
	}
	return json.Marshal(body)
}

// RegisterResult is the created account. Persisted is true when the session
// signed in as it.
type RegisterResult struct {
	LoginResult
	Persisted bool `json:"persisted"`
}

// RegisterPath returns the endpoint that creates accounts of role.
func RegisterPath(role domain.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	return "/auth/register/" + strings.ToLower(string(role)), nil
}

// Register creates an account. Only an admin account becomes this session's
// credential; other accounts are returned without being stored.
func (s *Session) Register(ctx context.Context, in RegisterInput, role domain.Role) (*RegisterResult, error) {
	path, err := RegisterPath(role)
	if err != nil {
		return nil, err
	}

	resp, err := s.anon.Do(ctx, http.MethodPost, path, in)
	if err != nil {
		return nil, err
	}
	payload, err := apiclient.Decode[authPayload](resp.Envelope)
	if err != nil {
		return nil, err
	}

	out := &RegisterResult{LoginResult: LoginResult{
		Token:   payload.credential(),
		User:    payload.User,
		Message: resp.Envelope.Message,
	}}
	if payload.User.IsAdmin() && payload.credential() != "" {
		if err := s.signIn(ctx, payload, in.Password); err != nil {
			return nil, err
		}
		out.Persisted = true
	}

	actorRole := role
	if payload.User != nil {
		actorRole = payload.User.Role
	}
	s.publish(ctx, events.EventRegistered, payload.User, events.RegisteredPayload{Role: actorRole, Persisted: out.Persisted})
	return out, nil
}
