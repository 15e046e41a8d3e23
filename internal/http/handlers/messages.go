package handlers

import "fmt"

const (
	msgNoPhoto           = "no_photo"
	msgNoImage           = "no_image"
	msgUnsupportedType   = "unsupported_type"
	msgTooLarge          = "too_large"
	msgInvalidCount      = "invalid_count"
	msgMissingCredential = "missing_credential"
	msgInvalidCredential = "invalid_credential"
	msgPreviewFailed     = "preview_failed"
	msgGenerateFailed    = "generate_failed"
	msgSuperseded        = "superseded"
	msgSheetNotFound     = "sheet_not_found"
	msgInvalidFormat     = "invalid_format"
	msgInvalidPayload    = "invalid_payload"
	msgInternal          = "internal"
)

var catalog = map[string]map[string]string{
	"en": {
		msgNoPhoto:           "Please upload an image.",
		msgNoImage:           "The model did not return an image. Please try again.",
		msgUnsupportedType:   "Invalid file type. Please upload a JPG, PNG, or WEBP image.",
		msgTooLarge:          "File is too large. Maximum size is 5MB.",
		msgInvalidCount:      "Number of photos must be between 1 and 16.",
		msgMissingCredential: "Please enter your Gemini API key.",
		msgInvalidCredential: "Your Gemini API key was rejected. Please enter a valid key.",
		msgPreviewFailed:     "Could not create image preview.",
		msgGenerateFailed:    "Failed to generate images: %s",
		msgSuperseded:        "This request was replaced by a newer one.",
		msgSheetNotFound:     "No photo sheet is available. Generate one first.",
		msgInvalidFormat:     "Unsupported download format. Use png, pdf or zip.",
		msgInvalidPayload:    "Invalid request payload.",
		msgInternal:          "Something went wrong. Please try again.",
	},
	"id": {
		msgNoPhoto:           "Silakan unggah gambar.",
		msgNoImage:           "Model tidak mengembalikan gambar. Silakan coba lagi.",
		msgUnsupportedType:   "Jenis file tidak valid. Silakan unggah gambar JPG, PNG, atau WEBP.",
		msgTooLarge:          "Ukuran file terlalu besar. Maksimal 5MB.",
		msgInvalidCount:      "Jumlah foto harus antara 1 dan 16.",
		msgMissingCredential: "Silakan masukkan kunci API Gemini Anda.",
		msgInvalidCredential: "Kunci API Gemini Anda ditolak. Silakan masukkan kunci yang valid.",
		msgPreviewFailed:     "Tidak dapat membuat pratinjau gambar.",
		msgGenerateFailed:    "Gagal membuat gambar: %s",
		msgSuperseded:        "Permintaan ini telah digantikan oleh permintaan yang lebih baru.",
		msgSheetNotFound:     "Belum ada lembar foto. Silakan buat terlebih dahulu.",
		msgInvalidFormat:     "Format unduhan tidak didukung. Gunakan png, pdf, atau zip.",
		msgInvalidPayload:    "Data permintaan tidak valid.",
		msgInternal:          "Terjadi kesalahan. Silakan coba lagi.",
	},
}

func message(locale, key string, args ...any) string {
	msgs, ok := catalog[locale]
	if !ok {
		msgs = catalog["en"]
	}
	text, ok := msgs[key]
	if !ok {
		text = catalog["en"][key]
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}
