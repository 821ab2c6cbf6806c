package config

import (
	"fmt"

	"github.com/wtsks/propsync/internal/model"
)

// Profile describes one taxonomy subsystem. Builder and Community share all
// code and differ only in their Profile.
type Profile struct {
	// Kind is the taxonomy this profile drives.
	Kind model.Kind

	// Singular and Plural are used in messages ("builder", "Builders").
	Singular string
	Plural   string

	// SourceLabel names the free-text source in messages ("subdivision").
	SourceLabel string

	// NoSourceText is reported when a listing has no source value.
	NoSourceText string

	// SelectionField is the editor field holding the chosen canonical title.
	SelectionField string

	// PrimaryKey and BackupKey are the meta keys the batch tool writes.
	PrimaryKey string
	BackupKey  string

	// MarkerKey records that the batch tool evaluated a listing.
	MarkerKey string

	// SaveSourceFields are the editor fields searched, in order, on save.
	SaveSourceFields []string

	// BatchSourceFields are the meta keys searched, in order, by the batch tool.
	BatchSourceFields []string

	// Keyword drives the fallback scan over field names.
	Keyword string

	// SaveKeywordFallback and BatchKeywordFallback enable the keyword scan
	// after the explicit lists are exhausted.
	SaveKeywordFallback  bool
	BatchKeywordFallback bool

	// Placeholder is the empty dropdown option label.
	Placeholder string

	// Shortcode is the tag name of the listings shortcode.
	Shortcode string

	// ToolSlug is the admin tool page path segment.
	ToolSlug string
}

// ProfileOverride is the configuration-file form of a Profile. Unset fields
// keep the built-in value.
type ProfileOverride struct {
	Singular             string   `yaml:"singular,omitempty"`
	Plural               string   `yaml:"plural,omitempty"`
	SourceLabel          string   `yaml:"sourceLabel,omitempty"`
	NoSourceText         string   `yaml:"noSourceText,omitempty"`
	SelectionField       string   `yaml:"selectionField,omitempty"`
	PrimaryKey           string   `yaml:"primaryKey,omitempty"`
	BackupKey            string   `yaml:"backupKey,omitempty"`
	MarkerKey            string   `yaml:"markerKey,omitempty"`
	SaveSourceFields     []string `yaml:"saveSourceFields,omitempty"`
	BatchSourceFields    []string `yaml:"batchSourceFields,omitempty"`
	Keyword              *string  `yaml:"keyword,omitempty"`
	SaveKeywordFallback  *bool    `yaml:"saveKeywordFallback,omitempty"`
	BatchKeywordFallback *bool    `yaml:"batchKeywordFallback,omitempty"`
	Placeholder          string   `yaml:"placeholder,omitempty"`
	Shortcode            string   `yaml:"shortcode,omitempty"`
}

// DefaultProfile returns the built-in profile for kind.
// An unknown kind yields a zero Profile that fails Validate.
func DefaultProfile(kind model.Kind) Profile {
	switch kind {
	case model.KindBuilder:
		return Profile{
			Kind:                 model.KindBuilder,
			Singular:             "builder",
			Plural:               "Builders",
			SourceLabel:          "builder",
			NoSourceText:         "no builder found",
			SelectionField:       "builder-selection",
			PrimaryKey:           "es_property_builder-selection",
			BackupKey:            "builder-selection",
			MarkerKey:            "wts_builder_sync_done",
			SaveSourceFields:     []string{"builder"},
			BatchSourceFields:    []string{"es_property_builder", "builder", "Builder", "buildername", "BuilderName"},
			Keyword:              "builder",
			SaveKeywordFallback:  true,
			BatchKeywordFallback: true,
			Placeholder:          "— Select a builder —",
			Shortcode:            "plugin_builder_listings",
			ToolSlug:             "builder-sync-tool",
		}
	case model.KindCommunity:
		return Profile{
			Kind:              model.KindCommunity,
			Singular:          "community",
			Plural:            "Communities",
			SourceLabel:       "subdivision",
			NoSourceText:      "no subdivision assigned",
			SelectionField:    "community-selection",
			PrimaryKey:        "es_property_community-selection",
			BackupKey:         "community-selection",
			MarkerKey:         "wts_community_sync_done",
			SaveSourceFields:  []string{"subdivisionname"},
			BatchSourceFields: []string{"es_property_subdivisionname", "subdivisionname", "SubdivisionName"},
			Keyword:           "subdivision",
			// The batch tool only trusts the known subdivision fields.
			SaveKeywordFallback:  true,
			BatchKeywordFallback: false,
			Placeholder:          "— Select a community —",
			Shortcode:            "plugin_community_listings",
			ToolSlug:             "community-sync-tool",
		}
	default:
		return Profile{Kind: kind}
	}
}

// Merge returns a copy of p with every field set in o applied.
func (p Profile) Merge(o ProfileOverride) Profile {
	setString(&p.Singular, o.Singular)
	setString(&p.Plural, o.Plural)
	setString(&p.SourceLabel, o.SourceLabel)
	setString(&p.NoSourceText, o.NoSourceText)
	setString(&p.SelectionField, o.SelectionField)
	setString(&p.PrimaryKey, o.PrimaryKey)
	setString(&p.BackupKey, o.BackupKey)
	setString(&p.MarkerKey, o.MarkerKey)
	setString(&p.Placeholder, o.Placeholder)
	setString(&p.Shortcode, o.Shortcode)
	if len(o.SaveSourceFields) > 0 {
		p.SaveSourceFields = append([]string(nil), o.SaveSourceFields...)
	}
	if len(o.BatchSourceFields) > 0 {
		p.BatchSourceFields = append([]string(nil), o.BatchSourceFields...)
	}
	if o.Keyword != nil {
		p.Keyword = *o.Keyword
	}
	if o.SaveKeywordFallback != nil {
		p.SaveKeywordFallback = *o.SaveKeywordFallback
	}
	if o.BatchKeywordFallback != nil {
		p.BatchKeywordFallback = *o.BatchKeywordFallback
	}
	return p
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate reports whether the profile can drive matching and sync.
func (p Profile) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProfile, p.Kind)
	}
	if p.SelectionField == "" {
		return fmt.Errorf("%w: selection field is required", ErrInvalidProfile)
	}
	if p.PrimaryKey == "" {
		return fmt.Errorf("%w: primary meta key is required", ErrInvalidProfile)
	}
	if p.MarkerKey == "" {
		return fmt.Errorf("%w: marker key is required", ErrInvalidProfile)
	}
	if p.MarkerKey == p.PrimaryKey || p.MarkerKey == p.BackupKey {
		return fmt.Errorf("%w: marker key %q collides with a selection key", ErrInvalidProfile, p.MarkerKey)
	}
	if (p.SaveKeywordFallback || p.BatchKeywordFallback) && p.Keyword == "" {
		return fmt.Errorf("%w: keyword fallback enabled without a keyword", ErrInvalidProfile)
	}
	return nil
}

// Excluded returns the keys the keyword fallback must never read: the
// selection field and its stored forms plus the processed marker.
func (p Profile) Excluded() []string {
	out := []string{p.SelectionField, p.PrimaryKey}
	if p.BackupKey != "" {
		out = append(out, p.BackupKey)
	}
	return append(out, p.MarkerKey)
}

// ShortcodeSettings configures expansion of the listings shortcodes.
type ShortcodeSettings struct {
	// Delegate is the shortcode the listings shortcodes expand to.
	Delegate string

	// Attributes are passed to Delegate in order, before the selection.
	Attributes []Attribute
}

// DefaultShortcodeSettings returns the built-in delegate and attributes.
func DefaultShortcodeSettings() ShortcodeSettings {
	return ShortcodeSettings{
		Delegate: "es_my_listing",
		Attributes: []Attribute{
			{Name: "layout", Value: "grid-4"},
			{Name: "show_sort", Value: "0"},
			{Name: "show_layouts", Value: "0"},
			{Name: "show_page_title", Value: "0"},
			{Name: "approximate-age", Value: "New, Under Construction, Model - Not for Sale"},
			{Name: "es_type", Value: "147, 726, 143"},
			{Name: "es_status", Value: "146, 144"},
		},
	}
}

// SaveSource finds the raw source value in an editor payload: the first
// non-empty SaveSourceFields entry, then the keyword fallback if enabled.
func (p Profile) SaveSource(f model.Fields) (key, value string) {
	return p.source(f, p.SaveSourceFields, p.SaveKeywordFallback)
}

// BatchSource finds the raw source value in stored listing meta: the first
// non-empty BatchSourceFields entry, then the keyword fallback if enabled.
func (p Profile) BatchSource(f model.Fields) (key, value string) {
	return p.source(f, p.BatchSourceFields, p.BatchKeywordFallback)
}

func (p Profile) source(f model.Fields, names []string, fallback bool) (key, value string) {
	if key, value = f.First(names...); value != "" {
		return key, value
	}
	if !fallback {
		return "", ""
	}
	return f.FirstContaining(p.Keyword, p.Excluded()...)
}
