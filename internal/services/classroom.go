package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	classroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"

	"study-ai/internal/logger"
	"study-ai/internal/models"
)

// ClassroomScopes are the read-only scopes requested at login.
var ClassroomScopes = []string{
	"https://www.googleapis.com/auth/classroom.courses.readonly",
	"https://www.googleapis.com/auth/classroom.announcements.readonly",
	"https://www.googleapis.com/auth/classroom.coursework.me.readonly",
	"https://www.googleapis.com/auth/classroom.courseworkmaterials.readonly",
	"https://www.googleapis.com/auth/classroom.student-submissions.me.readonly",
}

const coursesPageSize = 100

// ClassroomService runs the authorization-code flow against Google and lists
// the courses visible to the resulting session.
type ClassroomService struct {
	oauth   *oauth2.Config
	tokens  TokenStore
	log     *logger.Logger
	apiOpts []option.ClientOption
}

// NewClassroomService builds the OAuth client. apiOpts are appended to the
// Classroom client options and may redirect the API endpoint.
func NewClassroomService(clientID, clientSecret, redirectURI string, tokens TokenStore, log *logger.Logger, apiOpts ...option.ClientOption) *ClassroomService {
	return &ClassroomService{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     google.Endpoint,
			Scopes:       ClassroomScopes,
		},
		tokens:  tokens,
		log:     log.With("service", "ClassroomService"),
		apiOpts: apiOpts,
	}
}

// WithEndpoint replaces the OAuth endpoint. Used to point the token exchange
// at a test server.
func (s *ClassroomService) WithEndpoint(endpoint oauth2.Endpoint) *ClassroomService {
	s.oauth.Endpoint = endpoint
	return s
}

// LoginURL returns the consent page URL together with the fresh state that
// identifies this login.
func (s *ClassroomService) LoginURL() (string, string, error) {
	state, err := newState()
	if err != nil {
		return "", "", err
	}
	url := s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	s.log.Info("generated oauth login", "state", state)
	return url, state, nil
}

func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Exchange trades code for tokens and stores them under state.
func (s *ClassroomService) Exchange(ctx context.Context, code, state string) error {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return fmt.Errorf("%w: code and state are required", ErrInput)
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode >= 400 && re.Response.StatusCode < 500 {
			return fmt.Errorf("%w: token exchange rejected: %w", ErrInput, err)
		}
		return fmt.Errorf("%w: token exchange failed: %w", ErrRetrieval, err)
	}

	session := models.OAuthSession{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     s.oauth.Endpoint.TokenURL,
		ClientID:     s.oauth.ClientID,
		Scopes:       grantedScopes(tok),
		Expiry:       tok.Expiry,
	}
	if err := s.tokens.Store(ctx, state, session); err != nil {
		return err
	}
	s.log.Info("oauth session stored", "state", state, "scopes", len(session.Scopes))
	return nil
}

func grantedScopes(tok *oauth2.Token) []string {
	if scope, ok := tok.Extra("scope").(string); ok {
		return strings.Fields(scope)
	}
	return []string{}
}

// Courses lists every course visible to the session stored under state.
// An unknown state yields ErrNotAuthenticated.
func (s *ClassroomService) Courses(ctx context.Context, state string) ([]*classroom.Course, error) {
	session, err := s.tokens.Retrieve(ctx, state)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	ts := s.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Expiry:       session.Expiry,
	})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, s.apiOpts...)
	svc, err := classroom.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create classroom client: %w", err)
	}

	courses := []*classroom.Course{}
	err = svc.Courses.List().PageSize(coursesPageSize).Pages(ctx, func(page *classroom.ListCoursesResponse) error {
		courses = append(courses, page.Courses...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list courses: %w", ErrRetrieval, err)
	}
	s.log.Info("fetched courses", "state", state, "count", len(courses))
	return courses, nil
}
