// Package i18n holds the user-facing message catalogue.
package i18n

import (
	"context"
	"strings"
)

const DefaultLang = "tr"

type ctxKey struct{}

var catalog = map[string]map[string]string{
	"tr": {
		"required":                 "Zorunlu alan",
		"invalid_email":            "Geçersiz e-posta adresi",
		"invalid_choice":           "Geçersiz seçim",
		"must_not_be_negative":     "Negatif olamaz",
		"must_be_positive":         "Sıfırdan büyük olmalı",
		"too_short":                "Çok kısa",
		"too_long":                 "Çok uzun",
		"invalid_credentials":      "Geçersiz e-posta veya şifre",
		"invalid_or_expired_token": "Bağlantı geçersiz veya süresi dolmuş",
		"reset_link_sent":          "Eğer bu e-posta kayıtlıysa, şifre sıfırlama bağlantısı gönderildi.",
		"password_changed":         "Şifreniz güncellendi.",
		"cannot_delete_self":       "Kendinizi silemezsiniz.",
		"lead_converted":           "Aday müvekkile dönüştürüldü.",
		"new_client_message":       "Yeni müvekkil mesajı",
		"message_reply":            "Mesajınız yanıtlandı",
		"reset_subject":            "Şifre Sıfırlama",
		"reminder":                 "Hatırlatma",
		"hello":                    "Merhaba",
		"invoice":                  "Fatura",
		"invoice_date":             "Tarih",
		"due_date":                 "Vade",
		"client_info":              "Müvekkil Bilgileri",
		"description":              "Açıklama",
		"quantity":                 "Miktar",
		"unit_price":               "Birim Fiyat",
		"line_total":               "Toplam",
		"subtotal":                 "Ara Toplam",
		"vat":                      "KDV",
		"grand_total":              "Genel Toplam",
		"notes":                    "Notlar",
		"legal_services":           "Hukuki Danışmanlık Hizmeti",
		"reset_body":               "Şifrenizi sıfırlamak için aşağıdaki bağlantıyı kullanın. Bağlantı 24 saat geçerlidir.",
		"reset_ignore":             "Bu isteği siz yapmadıysanız bu e-postayı dikkate almayın.",
		"reply_body":               "Mesajınıza yanıt verildi:",
		"firm_tagline":             "Hukuk Bürosu Yönetim Sistemi",
	},
	"en": {
		"required":                 "Required",
		"invalid_email":            "Invalid e-mail address",
		"invalid_choice":           "Invalid choice",
		"must_not_be_negative":     "Must not be negative",
		"must_be_positive":         "Must be greater than zero",
		"too_short":                "Too short",
		"too_long":                 "Too long",
		"invalid_credentials":      "Invalid email or password",
		"invalid_or_expired_token": "The link is invalid or has expired",
		"reset_link_sent":          "If this e-mail is registered, a reset link has been sent.",
		"password_changed":         "Your password has been updated.",
		"cannot_delete_self":       "You cannot delete yourself.",
		"lead_converted":           "Lead converted to client.",
		"new_client_message":       "New client message",
		"message_reply":            "Your message has a reply",
		"reset_subject":            "Password Reset",
		"reminder":                 "Reminder",
		"hello":                    "Hello",
		"invoice":                  "Invoice",
		"invoice_date":             "Date",
		"due_date":                 "Due",
		"client_info":              "Client",
		"description":              "Description",
		"quantity":                 "Quantity",
		"unit_price":               "Unit Price",
		"line_total":               "Total",
		"subtotal":                 "Subtotal",
		"vat":                      "VAT",
		"grand_total":              "Grand Total",
		"notes":                    "Notes",
		"legal_services":           "Legal Consulting Services",
		"reset_body":               "Use the link below to reset your password. The link is valid for 24 hours.",
		"reset_ignore":             "If you did not request this, ignore this e-mail.",
		"reply_body":               "Your message received a reply:",
		"firm_tagline":             "Law Firm Practice Management",
	},
}

// T translates code for lang, falling back to the default language and then to the code itself.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// DetectLanguage picks the first supported primary tag of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(primary) {
			return primary
		}
	}
	return DefaultLang
}

// TranslateAll maps every violation code in v to its message.
func TranslateAll(lang string, v map[string]string) map[string]string {
	out := make(map[string]string, len(v))
	for field, code := range v {
		out[field] = T(lang, code)
	}
	return out
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
