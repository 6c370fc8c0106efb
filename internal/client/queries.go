package client

import (
	"context"
	"net/http"

	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/query"
)

func fetch[T any](ctx context.Context, c *Client, key string, opts ...query.Option) query.Result[T] {
	return query.Fetch(ctx, c.cache, key, getter[T](c, key), opts...)
}

func getter[T any](c *Client, key string) query.Fetcher[T] {
	return func(ctx context.Context) (T, error) {
		var out T
		err := c.doJSON(ctx, http.MethodGet, key, nil, &out)
		return out, err
	}
}

// RefetchKey reloads key immediately, bypassing freshness. key must be a
// resolved query key whose payload decodes into T.
func RefetchKey[T any](ctx context.Context, c *Client, key string) query.Result[T] {
	return query.Refetch(ctx, c.cache, key, getter[T](c, key))
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context, opts ...query.Option) query.Result[models.User] {
	return fetch[models.User](ctx, c, query.KeyMe, opts...)
}

// Internships returns the approved, active catalog.
func (c *Client) Internships(ctx context.Context, opts ...query.Option) query.Result[[]models.Internship] {
	return fetch[[]models.Internship](ctx, c, query.KeyInternships, opts...)
}

// CompanyInternships returns the calling company's postings.
func (c *Client) CompanyInternships(ctx context.Context, opts ...query.Option) query.Result[[]models.Internship] {
	return fetch[[]models.Internship](ctx, c, query.KeyCompanyInternships, opts...)
}

// SchoolInternships returns postings from the calling school's partners.
func (c *Client) SchoolInternships(ctx context.Context, opts ...query.Option) query.Result[[]models.Internship] {
	return fetch[[]models.Internship](ctx, c, query.KeySchoolInternships, opts...)
}

func (c *Client) StudentApplications(ctx context.Context, opts ...query.Option) query.Result[[]models.Application] {
	return fetch[[]models.Application](ctx, c, query.KeyStudentApplications, opts...)
}

func (c *Client) CompanyApplications(ctx context.Context, opts ...query.Option) query.Result[[]models.Application] {
	return fetch[[]models.Application](ctx, c, query.KeyCompanyApplications, opts...)
}

func (c *Client) Documents(ctx context.Context, opts ...query.Option) query.Result[[]models.Document] {
	return fetch[[]models.Document](ctx, c, query.KeyDocuments, opts...)
}

func (c *Client) SharedDocuments(ctx context.Context, opts ...query.Option) query.Result[[]models.SharedDocument] {
	return fetch[[]models.SharedDocument](ctx, c, query.KeySharedDocuments, opts...)
}

func (c *Client) DocumentRequests(ctx context.Context, opts ...query.Option) query.Result[[]models.DocumentRequest] {
	return fetch[[]models.DocumentRequest](ctx, c, query.KeyDocumentRequests, opts...)
}

func (c *Client) Partnerships(ctx context.Context, opts ...query.Option) query.Result[[]models.Partnership] {
	return fetch[[]models.Partnership](ctx, c, query.KeyPartnerships, opts...)
}

func (c *Client) Conversations(ctx context.Context, opts ...query.Option) query.Result[[]models.Conversation] {
	return fetch[[]models.Conversation](ctx, c, query.KeyConversations, opts...)
}

// Conversation returns the thread with peerID. An empty peer disables the
// fetch.
func (c *Client) Conversation(ctx context.Context, peerID string, opts ...query.Option) query.Result[[]models.Message] {
	key, ok := ConversationKey(peerID)
	if !ok {
		opts = append(opts, query.Enabled(false))
	}
	return fetch[[]models.Message](ctx, c, key, opts...)
}

// ConversationKey resolves the thread key for peerID.
func ConversationKey(peerID string) (string, bool) {
	return query.Resolve(query.KeyConversation, map[string]string{"peerId": peerID})
}
