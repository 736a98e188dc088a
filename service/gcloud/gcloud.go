// Package gcloud provides a [hakim.Translator] backed by Google Cloud Translate.
package gcloud

//go:generate mockgen -source=gcloud.go -destination=./mocks/gcloud.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	api "cloud.google.com/go/translate/apiv3"
	"github.com/googleapis/gax-go/v2"
	"github.com/modernice/hakim"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/cloud/translate/v3"
)

// CredentialsEnv is the environment variable that holds the path to a
// service account file. It is used when no other credentials are configured.
const CredentialsEnv = "HAKIM_GCLOUD_CREDENTIALS"

// DefaultLocation is the location of the translation requests.
const DefaultLocation = "global"

var (
	// ErrNoCredentials means no credentials are provided to initialize the translator.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrNoTranslations means the response contained no translation.
	ErrNoTranslations = errors.New("no translations")
)

// Client is an interface for the Google Cloud Translate client.
type Client interface {
	TranslateText(context.Context, *translate.TranslateTextRequest, ...gax.CallOption) (*translate.TranslateTextResponse, error)
}

// Translator translates through Google Cloud Translate. The client is created
// lazily on the first translation, so a misconfigured translator surfaces as a
// *SetupError of the first request instead of failing at startup.
type Translator struct {
	mux            sync.RWMutex
	client         Client
	projectID      string
	location       string
	model          string
	scopes         []string
	tokenSource    oauth2.TokenSource
	newTokenSource func(context.Context, ...string) (oauth2.TokenSource, error)
	clientOpts     []option.ClientOption
}

// Option is a Translator option.
type Option func(*Translator)

// SetupError is an error that occurred while creating the client.
type SetupError struct {
	Err error
}

func (err *SetupError) Error() string {
	return fmt.Sprintf("setup: %s", err.Err)
}

func (err *SetupError) Unwrap() error {
	return err.Err
}

// WithClientOptions adds option.ClientOptions that are passed to the client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(t *Translator) {
		t.clientOpts = append(t.clientOpts, opts...)
	}
}

// Location sets the location of the requests ("global", "us-central1", ...).
func Location(location string) Option {
	return func(t *Translator) {
		t.location = location
	}
}

// Model sets the translation model, e.g.
// "projects/my-project/locations/us-central1/models/general/nmt".
func Model(model string) Option {
	return func(t *Translator) {
		t.model = model
	}
}

// WithTokenSource sets the oauth2.TokenSource of the client. It takes
// precedence over all Credentials options.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(t *Translator) {
		t.tokenSource = ts
	}
}

// Scopes sets the OAuth2 scopes.
func Scopes(scopes ...string) Option {
	return func(t *Translator) {
		t.scopes = append(t.scopes, scopes...)
	}
}

// Credentials authenticates with creds.
func Credentials(creds *google.Credentials) Option {
	return withTokenSourceFactory(func(context.Context, ...string) (oauth2.TokenSource, error) {
		if creds == nil {
			return nil, errors.New("nil credentials")
		}
		return creds.TokenSource, nil
	})
}

// CredentialsJSON authenticates with the service account key in jsonKey.
func CredentialsJSON(jsonKey []byte) Option {
	return withTokenSourceFactory(func(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
		return jwtTokenSource(ctx, jsonKey, scopes...)
	})
}

// CredentialsFile authenticates with the service account file at path.
func CredentialsFile(path string) Option {
	return withTokenSourceFactory(func(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials file %s: %w", path, err)
		}
		return jwtTokenSource(ctx, b, scopes...)
	})
}

func withTokenSourceFactory(newTokenSource func(context.Context, ...string) (oauth2.TokenSource, error)) Option {
	return func(t *Translator) {
		t.newTokenSource = newTokenSource
	}
}

func jwtTokenSource(ctx context.Context, jsonKey []byte, scopes ...string) (oauth2.TokenSource, error) {
	cfg, err := google.JWTConfigFromJSON(jsonKey, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg.TokenSource(ctx), nil
}

// New returns a translator for the Google Cloud project projectID. If no
// credentials are provided, the file at the path in $HAKIM_GCLOUD_CREDENTIALS
// is used.
func New(projectID string, opts ...Option) *Translator {
	t := &Translator{projectID: projectID}
	if path := os.Getenv(CredentialsEnv); path != "" {
		opts = append([]Option{CredentialsFile(path)}, opts...)
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.location == "" {
		t.location = DefaultLocation
	}
	if len(t.scopes) == 0 {
		t.scopes = []string{"https://www.googleapis.com/auth/cloud-translation"}
	}
	return t
}

// NewWithClient returns a translator that uses an existing Client.
func NewWithClient(client Client, projectID string, opts ...Option) *Translator {
	if client == nil {
		panic("nil client")
	}
	t := New(projectID, opts...)
	t.client = client
	return t
}

// NewFromCredentialsFile returns a translator that authenticates with the
// service account file at path and uses its project.
func NewFromCredentialsFile(ctx context.Context, path string, opts ...Option) (*Translator, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("obtain credentials: %w", err)
	}

	return New(creds.ProjectID, append([]Option{CredentialsJSON(b)}, opts...)...), nil
}

// Client returns the underlying Client. It is nil until the first translation
// unless the translator was created by NewWithClient.
func (t *Translator) Client() Client {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return t.client
}

// ProjectID returns the Google Cloud project id.
func (t *Translator) ProjectID() string {
	return t.projectID
}

// Translate translates text from source to target. Languages are identified
// by their ISO 639-1 code.
func (t *Translator) Translate(ctx context.Context, text string, source, target hakim.Language) (string, error) {
	if source.Alpha2 == "" {
		return "", fmt.Errorf("cloud translate: %w: %s", hakim.ErrUnsupportedLanguage, source.Name)
	}
	if target.Alpha2 == "" {
		return "", fmt.Errorf("cloud translate: %w: %s", hakim.ErrUnsupportedLanguage, target.Name)
	}

	client, err := t.ensure(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.TranslateText(ctx, &translate.TranslateTextRequest{
		Parent:             fmt.Sprintf("projects/%s/locations/%s", t.projectID, t.location),
		MimeType:           "text/plain",
		Model:              t.model,
		SourceLanguageCode: source.Alpha2,
		TargetLanguageCode: target.Alpha2,
		Contents:           []string{text},
	})
	if err != nil {
		return "", fmt.Errorf("cloud translate: %w", err)
	}

	trans := resp.GetTranslations()
	if len(trans) == 0 {
		return "", fmt.Errorf("cloud translate: %w", ErrNoTranslations)
	}

	return trans[0].GetTranslatedText(), nil
}

func (t *Translator) ensure(ctx context.Context) (Client, error) {
	if client := t.Client(); client != nil {
		return client, nil
	}

	t.mux.Lock()
	defer t.mux.Unlock()

	if t.client != nil {
		return t.client, nil
	}

	if err := t.init(ctx); err != nil {
		return nil, &SetupError{err}
	}

	return t.client, nil
}

func (t *Translator) init(ctx context.Context) error {
	if t.tokenSource == nil && t.newTokenSource != nil {
		ts, err := t.newTokenSource(ctx, t.scopes...)
		if err != nil {
			return fmt.Errorf("new token source: %w", err)
		}
		t.tokenSource = ts
	}

	if t.tokenSource == nil {
		return ErrNoCredentials
	}

	opts := append([]option.ClientOption{option.WithTokenSource(t.tokenSource)}, t.clientOpts...)
	client, err := api.NewTranslationClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("new translation client: %w", err)
	}
	t.client = client

	return nil
}
