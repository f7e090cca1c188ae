// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Setting represents a site-wide key/value setting. Settings have no history;
// writes are last-write-wins.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known setting keys.
const (
	SettingSiteTitle       = "site_title"
	SettingSiteDescription = "site_description"
	SettingHomepageIntro   = "homepage_intro"
)

// SettingKeys lists every supported setting key.
var SettingKeys = []string{SettingSiteTitle, SettingSiteDescription, SettingHomepageIntro}

// SettingDefaults maps each setting key to its default value, used when the
// row has never been written.
var SettingDefaults = map[string]string{
	SettingSiteTitle:       "FolioCMS",
	SettingSiteDescription: "",
	SettingHomepageIntro:   "",
}

// IsValidSettingKey checks if a setting key is supported.
func IsValidSettingKey(key string) bool {
	_, ok := SettingDefaults[key]
	return ok
}
