// Package signup defines the developer sign-up form: an avatar upload, name, email
// restricted to one domain, password and a list of at least two technologies with a
// knowledge level each.
package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azhovan/formrig"
)

const (
	// DefaultEmailDomain is the only email domain accepted by the default schema.
	DefaultEmailDomain = "rocketseat.com.br"

	// DefaultMaxAvatarBytes bounds the avatar size (5 MiB).
	DefaultMaxAvatarBytes int64 = 5 * 1024 * 1024
)

// ErrNoAvatar is returned by Submit when the data carries no avatar file.
var ErrNoAvatar = errors.New("signup: no avatar to upload")

// Options tune the sign-up schema.
type Options struct {
	EmailDomain    string
	MaxAvatarBytes int64
}

// Tech is one entry of the technologies list.
type Tech struct {
	Title     string  `form:"title" json:"title"`
	Knowledge float64 `form:"knowledge" json:"knowledge"`
}

// Data is a validated, normalized sign-up submission.
type Data struct {
	Avatar   formrig.FileRef `form:"avatar" json:"avatar"`
	Name     string          `form:"name" json:"name"`
	Email    string          `form:"email" json:"email"`
	Password string          `form:"password" json:"-"`
	Techs    []Tech          `form:"techs" json:"techs"`
}

// Schema is the sign-up schema built with default options.
var Schema = MustSchema(Options{})

// NewSchema builds the sign-up schema. Zero option values fall back to the defaults.
func NewSchema(opts Options) (*formrig.Schema, error) {
	if opts.EmailDomain == "" {
		opts.EmailDomain = DefaultEmailDomain
	}
	if opts.MaxAvatarBytes <= 0 {
		opts.MaxAvatarBytes = DefaultMaxAvatarBytes
	}

	return formrig.NewSchema(
		formrig.Field("avatar", formrig.KindFile,
			formrig.MaxFileSize(opts.MaxAvatarBytes).
				WithMessage("file must be at most "+formatSize(opts.MaxAvatarBytes)),
		).WithLabel("Avatar (image path)"),

		formrig.Field("name", formrig.KindText,
			formrig.Required().WithMessage("name is required"),
		).WithTransforms(formrig.Trim, formrig.TitleCase).WithLabel("Name"),

		formrig.Field("email", formrig.KindEmail,
			formrig.Required().WithMessage("email is required"),
			formrig.Email().WithMessage("invalid email format"),
			formrig.EmailDomain(opts.EmailDomain).
				WithMessage(fmt.Sprintf("email must be a %s address", opts.EmailDomain)),
		).WithTransforms(formrig.Lower).WithLabel("Email"),

		formrig.Field("password", formrig.KindPassword,
			formrig.MinLength(6).WithMessage("password must be at least 6 characters"),
		).AsSecret().WithLabel("Password"),

		formrig.List("techs", []formrig.FieldSpec{
			formrig.Field("title", formrig.KindText,
				formrig.Required().WithMessage("title is required"),
			).WithLabel("Technology"),
			formrig.Field("knowledge", formrig.KindNumber,
				formrig.Min(1).WithMessage("knowledge must be at least 1"),
				formrig.Max(100).WithMessage("knowledge must be at most 100"),
			).WithLabel("Knowledge (1-100)"),
		},
			formrig.MinItems(2).WithMessage("at least 2 technologies"),
		).WithLabel("Technologies"),
	)
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(opts Options) *formrig.Schema {
	s, err := NewSchema(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate validates input against the default schema and decodes the result.
// Failures are returned as *formrig.ValidationError.
func Validate(input formrig.Input) (Data, error) {
	return ValidateWith(Schema, input)
}

// ValidateWith is like Validate for a schema built with NewSchema.
func ValidateWith(schema *formrig.Schema, input formrig.Input) (Data, error) {
	res := schema.Validate(input)
	if !res.OK() {
		return Data{}, res.Err
	}

	var data Data
	if err := formrig.Decode(res.Values, &data); err != nil {
		return Data{}, err
	}
	return data, nil
}

// Submit uploads the avatar, keyed by its file name, and returns where it landed.
// The upload is attempted exactly once.
func Submit(ctx context.Context, up formrig.Uploader, data Data) (string, error) {
	if data.Avatar == (formrig.FileRef{}) {
		return "", ErrNoAvatar
	}

	location, err := up.Upload(ctx, data.Avatar.Name, data.Avatar)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return location, nil
}

func formatSize(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	if n%1024 == 0 {
		return fmt.Sprintf("%dKB", n/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
