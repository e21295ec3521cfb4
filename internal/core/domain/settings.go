// internal/core/domain/settings.go
package domain

// Settings keys stored in the settings table.
const (
	SettingLanguage = "language"
	SettingCurrency = "currency"
)

// AppSettings are the operator's display preferences.
type AppSettings struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
}
