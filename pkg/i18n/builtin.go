package i18n

// Builtins returns the bundled catalogs.
func Builtins() map[string]Catalog {
	return map[string]Catalog{
		"en": {
			"common.ok":             "OK",
			"common.cancel":         "Cancel",
			"onboarding.title":      "Welcome",
			"onboarding.continue":   "Get started",
			"auth.login":            "Log in",
			"auth.register":         "Create account",
			"home.greeting":         "Hello, {name}!",
			"settings.language":     "Language",
			"settings.theme":        "Theme",
			"settings.theme.light":  "Light",
			"settings.theme.dark":   "Dark",
			"settings.deleteUser":   "Delete my data",
			"form.validation.email": "Enter a valid email address",
		},
		"tr": {
			"common.ok":             "Tamam",
			"common.cancel":         "İptal",
			"onboarding.title":      "Hoş geldiniz",
			"onboarding.continue":   "Başlayın",
			"auth.login":            "Giriş yap",
			"auth.register":         "Hesap oluştur",
			"home.greeting":         "Merhaba, {name}!",
			"settings.language":     "Dil",
			"settings.theme":        "Tema",
			"settings.theme.light":  "Açık",
			"settings.theme.dark":   "Koyu",
			"settings.deleteUser":   "Verilerimi sil",
			"form.validation.email": "Geçerli bir e-posta adresi girin",
		},
	}
}
