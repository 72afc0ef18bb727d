// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package upload issues short-lived, presigned grants so clients can PUT course
media straight into object storage.

The server never sees the bytes. It only decides where an object may live
(the key layout below) and hands back the signed PUT URL together with the
public CDN URL the course will reference afterwards.

Key layout:

  - course-images/{uuid}/{fileName} for any image/* content type
  - videos/{uuid}/{fileName} for video/mp4 only
*/
package upload

import (
	"context"
	"log/slog"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/constants"
	"github.com/taibuivan/academia/internal/platform/validate"
	"github.com/taibuivan/academia/pkg/uuid"
)

// Kind classifies an upload by the storage prefix it lands under.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const (
	FieldFileName = "fileName"
	FieldFileType = "fileType"

	maxFileNameLength = 255
	videoContentType  = "video/mp4"
)

// Grant is a one-shot permission to PUT a single object.
type Grant struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	Kind      Kind      `json:"kind"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presigner signs a PUT request for key that is valid for ttl.
type Presigner interface {
	PresignPut(context context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// Issuer builds upload grants on top of a [Presigner].
type Issuer struct {
	presigner Presigner
	cdnDomain string
	ttl       time.Duration
	newID     uuid.Generator
	now       func() time.Time
	logger    *slog.Logger
}

// NewIssuer constructs an [Issuer]. A non-positive ttl falls back to [constants.DefaultUploadURLTTL].
func NewIssuer(presigner Presigner, cdnDomain string, ttl time.Duration, newID uuid.Generator, logger *slog.Logger) *Issuer {
	if ttl <= 0 {
		ttl = constants.DefaultUploadURLTTL
	}
	return &Issuer{
		presigner: presigner,
		cdnDomain: strings.TrimRight(cdnDomain, "/"),
		ttl:       ttl,
		newID:     newID,
		now:       time.Now,
		logger:    logger,
	}
}

/*
IssueUploadGrant classifies the upload, allocates a unique key and presigns
a PUT for it.

Parameters:
  - context: context.Context
  - fileName: string (bare file name, no path separators)
  - contentType: string (MIME type the client will send)

Returns:
  - Grant: The signed URL and where the object will be served from
  - error: ValidationError, UnsupportedMediaType, or Internal when signing fails
*/
func (issuer *Issuer) IssueUploadGrant(context context.Context, fileName, contentType string) (Grant, error) {

	// ── 1. Input Validation ──────────────────────────────────────────────
	fileName = strings.TrimSpace(fileName)
	contentType = strings.TrimSpace(contentType)

	validator := &validate.Validator{}
	validator.Required(FieldFileName, fileName).MaxLen(FieldFileName, fileName, maxFileNameLength)
	validator.Required(FieldFileType, contentType)
	validator.Custom(FieldFileName, strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == "..", "Must be a bare file name")
	if err := validator.Err(); err != nil {
		return Grant{}, err
	}

	// ── 2. Classification ────────────────────────────────────────────────
	kind, prefix, err := Classify(contentType)
	if err != nil {
		return Grant{}, err
	}

	// ── 3. Signing ───────────────────────────────────────────────────────
	key := prefix + "/" + issuer.newID() + "/" + fileName

	url, err := issuer.presigner.PresignPut(context, key, contentType, issuer.ttl)
	if err != nil {
		return Grant{}, apperr.Internal(err)
	}

	issuer.logger.InfoContext(context, "upload_grant_issued",
		slog.String("key", key),
		slog.String("kind", string(kind)),
	)

	return Grant{
		UploadURL: url,
		PublicURL: issuer.PublicURL(key),
		Key:       key,
		Kind:      kind,
		ExpiresAt: issuer.now().UTC().Add(issuer.ttl),
	}, nil
}

// PublicURL is where a stored object is served from once uploaded. Each key
// segment is path-escaped; the key itself stays as the client named it.
func (issuer *Issuer) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return issuer.cdnDomain + "/" + strings.Join(segments, "/")
}

/*
Classify maps a MIME type onto an upload kind and its key prefix.

Parameters are matched on the media type only, so "image/png; charset=binary"
is still an image.
*/
func Classify(contentType string) (Kind, string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", "", apperr.UnsupportedMediaType(contentType)
	}

	switch {
	case strings.HasPrefix(mediaType, "image/") && len(mediaType) > len("image/"):
		return KindImage, constants.UploadPrefixImage, nil
	case mediaType == videoContentType:
		return KindVideo, constants.UploadPrefixVideo, nil
	default:
		return "", "", apperr.UnsupportedMediaType(contentType)
	}
}
