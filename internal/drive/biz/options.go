package biz

import "strings"

// Options bound the tree engine
type Options struct {
	MaxDepth        int
	MaxNameAttempts int
	MaxUploadFiles  int
	// AllowedTypes lists accepted MIME types; "image/*" matches a prefix.
	AllowedTypes []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:        64,
		MaxNameAttempts: 10000,
		MaxUploadFiles:  10,
		AllowedTypes:    []string{MIMEPDF, MIMEDoc, MIMEDocx, "image/*"},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MaxNameAttempts <= 0 {
		o.MaxNameAttempts = d.MaxNameAttempts
	}
	if o.MaxUploadFiles <= 0 {
		o.MaxUploadFiles = d.MaxUploadFiles
	}
	if len(o.AllowedTypes) == 0 {
		o.AllowedTypes = d.AllowedTypes
	}
	return o
}

// TypeAllowed reports whether mimeType passes the upload filter
func (o Options) TypeAllowed(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	for _, t := range o.AllowedTypes {
		t = strings.ToLower(t)
		if prefix, ok := strings.CutSuffix(t, "*"); ok {
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
			continue
		}
		if mimeType == t {
			return true
		}
	}
	return false
}
