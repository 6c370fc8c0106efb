package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/mutation"
)

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
	User   *models.User         `json:"user,omitempty"`
}

// submit validates value and, when it passes, runs send through the
// dispatcher. A value that fails validation is reported as a warning and no
// request is made.
func submit[T, R any](ctx context.Context, c *Client, kind mutation.Kind, params mutation.Params, value T, send func(context.Context, T) (R, error)) (R, error) {
	var out R
	err := form.New(value).Submit(ctx, func(ctx context.Context, v T) error {
		var err error
		out, err = mutation.Run(ctx, c.dispatcher, kind, params, func(ctx context.Context) (R, error) {
			return send(ctx, v)
		})
		return err
	})
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		c.dispatcher.Warn(kind, err)
	}
	return out, err
}

func pathID(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}

// SignUp registers an account and starts a session for it.
func (c *Client) SignUp(ctx context.Context, req form.SignUp) (models.User, error) {
	return submit(ctx, c, mutation.SignUp, nil, req, func(ctx context.Context, v form.SignUp) (models.User, error) {
		return c.authenticate(ctx, "/auth/signup", v)
	})
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, req form.Login) (models.User, error) {
	return submit(ctx, c, mutation.Login, nil, req, func(ctx context.Context, v form.Login) (models.User, error) {
		return c.authenticate(ctx, "/auth/login", v)
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (models.User, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return models.User{}, err
	}
	if resp.User == nil || resp.Tokens.AccessToken == "" {
		return models.User{}, fmt.Errorf("%w: missing session in response", ErrInvalidResponse)
	}
	c.setSession(resp.Tokens)
	return *resp.User, nil
}

// RefreshSession rotates the refresh token. It does not touch the cache.
func (c *Client) RefreshSession(ctx context.Context) (models.SessionTokens, error) {
	body := map[string]string{"refreshToken": c.Session().RefreshToken}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", body, &resp); err != nil {
		return models.SessionTokens{}, err
	}
	if resp.Tokens.AccessToken == "" {
		return models.SessionTokens{}, fmt.Errorf("%w: missing tokens in response", ErrInvalidResponse)
	}
	c.setSession(resp.Tokens)
	return resp.Tokens, nil
}

// Logout revokes the session and clears every cached query. The local
// session and cache are dropped even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := mutation.Run(ctx, c.dispatcher, mutation.Logout, nil, func(ctx context.Context) (struct{}, error) {
		body := map[string]string{"refreshToken": c.Session().RefreshToken}
		return struct{}{}, c.doJSON(ctx, http.MethodPost, "/auth/logout", body, nil)
	})
	c.setSession(models.SessionTokens{})
	if err != nil {
		c.cache.Clear()
	}
	return err
}

// CreateInternship posts a new internship for the calling company.
func (c *Client) CreateInternship(ctx context.Context, req form.Internship) (models.Internship, error) {
	return submit(ctx, c, mutation.CreateInternship, nil, req, func(ctx context.Context, v form.Internship) (models.Internship, error) {
		var out models.Internship
		err := c.doJSON(ctx, http.MethodPost, "/internships", v, &out)
		return out, err
	})
}

// ReviewInternship records a school's decision on a pending internship.
func (c *Client) ReviewInternship(ctx context.Context, id string, req form.InternshipReview) (models.Internship, error) {
	return submit(ctx, c, mutation.ReviewInternship, nil, req, func(ctx context.Context, v form.InternshipReview) (models.Internship, error) {
		var out models.Internship
		err := c.doJSON(ctx, http.MethodPatch, pathID("/internships/%s/status", id), v, &out)
		return out, err
	})
}

// SetInternshipActive opens or closes one of the company's internships.
func (c *Client) SetInternshipActive(ctx context.Context, id string, active bool) (models.Internship, error) {
	return submit(ctx, c, mutation.ToggleInternship, nil, form.InternshipActive{IsActive: &active}, func(ctx context.Context, v form.InternshipActive) (models.Internship, error) {
		var out models.Internship
		err := c.doJSON(ctx, http.MethodPatch, pathID("/internships/%s/active", id), v, &out)
		return out, err
	})
}

// Apply submits the calling student's application.
func (c *Client) Apply(ctx context.Context, req form.Application) (models.Application, error) {
	return submit(ctx, c, mutation.Apply, nil, req, func(ctx context.Context, v form.Application) (models.Application, error) {
		var out models.Application
		err := c.doJSON(ctx, http.MethodPost, "/applications", v, &out)
		return out, err
	})
}

// UpdateApplicationStatus moves an application to a new status.
func (c *Client) UpdateApplicationStatus(ctx context.Context, id string, req form.ApplicationStatus) (models.Application, error) {
	return submit(ctx, c, mutation.UpdateApplication, nil, req, func(ctx context.Context, v form.ApplicationStatus) (models.Application, error) {
		var out models.Application
		err := c.doJSON(ctx, http.MethodPatch, pathID("/applications/%s/status", id), v, &out)
		return out, err
	})
}

// UploadDocument sends the local file named by req.File. The returned
// document is pending until the service has stored the bytes.
func (c *Client) UploadDocument(ctx context.Context, req form.DocumentUpload) (models.Document, error) {
	return submit(ctx, c, mutation.UploadDocument, nil, req, func(ctx context.Context, v form.DocumentUpload) (models.Document, error) {
		return c.upload(ctx, v.File, v.Type)
	})
}

// ShareDocument uploads the local file and shares it with the recipient. The
// upload and the share are separate mutations, so a failed share still
// refreshes the document list with the uploaded file.
func (c *Client) ShareDocument(ctx context.Context, req form.DocumentShare) (models.SharedDocument, error) {
	if err := form.Validate(req); err != nil {
		c.dispatcher.Warn(mutation.ShareDocument, err)
		return models.SharedDocument{}, err
	}
	doc, err := c.UploadDocument(ctx, form.DocumentUpload{File: req.File, Type: req.Type})
	if err != nil {
		return models.SharedDocument{}, err
	}
	return c.ShareExistingDocument(ctx, form.ShareExisting{DocumentID: doc.ID, RecipientID: req.RecipientID})
}

// ShareExistingDocument shares an already uploaded document.
func (c *Client) ShareExistingDocument(ctx context.Context, req form.ShareExisting) (models.SharedDocument, error) {
	return submit(ctx, c, mutation.ShareDocument, nil, req, func(ctx context.Context, v form.ShareExisting) (models.SharedDocument, error) {
		return c.share(ctx, v.DocumentID, v.RecipientID)
	})
}

// ForwardDocument forwards a received share to a company.
func (c *Client) ForwardDocument(ctx context.Context, shareID string, req form.Forward) (models.SharedDocument, error) {
	return submit(ctx, c, mutation.ForwardDocument, nil, req, func(ctx context.Context, v form.Forward) (models.SharedDocument, error) {
		var out models.SharedDocument
		err := c.doJSON(ctx, http.MethodPost, pathID("/documents/shared/%s/forward", shareID), v, &out)
		return out, err
	})
}

func (c *Client) share(ctx context.Context, documentID, recipientID string) (models.SharedDocument, error) {
	var out models.SharedDocument
	body := map[string]string{"recipientId": recipientID}
	err := c.doJSON(ctx, http.MethodPost, pathID("/documents/%s/share", documentID), body, &out)
	return out, err
}

func (c *Client) upload(ctx context.Context, path, docType string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", docType); err != nil {
		return models.Document{}, fmt.Errorf("write type field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return models.Document{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return models.Document{}, fmt.Errorf("close multipart body: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		return models.Document{}, err
	}
	defer resp.Body.Close()
	var doc models.Document
	if err := decodeResponse(resp, &doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// DownloadDocument copies the stored bytes of a document into w.
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, pathID("/documents/%s/content", id), "", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &TransportError{Method: http.MethodGet, URL: resp.Request.URL.String(), Err: err}
	}
	return n, nil
}

// CreateDocumentRequest asks a school for an administrative document.
func (c *Client) CreateDocumentRequest(ctx context.Context, req form.DocumentRequest) (models.DocumentRequest, error) {
	return submit(ctx, c, mutation.CreateDocumentRequest, nil, req, func(ctx context.Context, v form.DocumentRequest) (models.DocumentRequest, error) {
		var out models.DocumentRequest
		err := c.doJSON(ctx, http.MethodPost, "/document-requests", v, &out)
		return out, err
	})
}

// ResolveDocumentRequest records the school's answer to a request.
func (c *Client) ResolveDocumentRequest(ctx context.Context, id string, req form.DocumentRequestResolve) (models.DocumentRequest, error) {
	return submit(ctx, c, mutation.ResolveDocumentRequest, nil, req, func(ctx context.Context, v form.DocumentRequestResolve) (models.DocumentRequest, error) {
		var out models.DocumentRequest
		err := c.doJSON(ctx, http.MethodPatch, pathID("/document-requests/%s/status", id), v, &out)
		return out, err
	})
}

// CreatePartnership links the calling school with a company.
func (c *Client) CreatePartnership(ctx context.Context, req form.Partnership) (models.Partnership, error) {
	return submit(ctx, c, mutation.CreatePartnership, nil, req, func(ctx context.Context, v form.Partnership) (models.Partnership, error) {
		var out models.Partnership
		err := c.doJSON(ctx, http.MethodPost, "/partnerships", v, &out)
		return out, err
	})
}

// SetPartnershipStatus activates or deactivates a partnership.
func (c *Client) SetPartnershipStatus(ctx context.Context, id string, req form.PartnershipStatus) (models.Partnership, error) {
	return submit(ctx, c, mutation.SetPartnershipStatus, nil, req, func(ctx context.Context, v form.PartnershipStatus) (models.Partnership, error) {
		var out models.Partnership
		err := c.doJSON(ctx, http.MethodPatch, pathID("/partnerships/%s/status", id), v, &out)
		return out, err
	})
}

// SendMessage sends a direct message.
func (c *Client) SendMessage(ctx context.Context, req form.Message) (models.Message, error) {
	params := mutation.Params{"peerId": req.ReceiverID}
	return submit(ctx, c, mutation.SendMessage, params, req, func(ctx context.Context, v form.Message) (models.Message, error) {
		var out models.Message
		err := c.doJSON(ctx, http.MethodPost, "/messages", v, &out)
		return out, err
	})
}

// MarkMessageRead marks a received message as read.
func (c *Client) MarkMessageRead(ctx context.Context, id string) (models.Message, error) {
	// The peer is only known from the response; params is read after submit returns.
	params := mutation.Params{}
	return mutation.Run(ctx, c.dispatcher, mutation.MarkMessageRead, params, func(ctx context.Context) (models.Message, error) {
		var out models.Message
		if err := c.doJSON(ctx, http.MethodPatch, pathID("/messages/%s/read", id), nil, &out); err != nil {
			return out, err
		}
		params["peerId"] = out.SenderID
		return out, nil
	})
}
