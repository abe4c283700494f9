// Package locale holds the user-facing strings of the assistant.
package locale

import "fmt"

// Catalog is the set of strings shown to end users in one display language.
type Catalog struct {
	Tag      string
	Language string

	EmptyMessage       string
	MessageTooLong     string // %d: character ceiling
	TooManyRequests    string // %d: seconds until a slot frees
	LimiterUnavailable string
	NotConfigured      string
	BackendFailed      string

	// Acknowledge is the canned model turn that follows the persona instruction.
	Acknowledge string
	// EmptyReply replaces a well-formed reply that carried no text.
	EmptyReply string

	ScrapeNotFound string // %s: what was looked up
	ScrapeFailed   string // %s: source name
}

var english = Catalog{
	Tag:                "en",
	Language:           "English",
	EmptyMessage:       "message must not be empty",
	MessageTooLong:     "message too long, max %d characters",
	TooManyRequests:    "too many requests, retry after %d seconds",
	LimiterUnavailable: "service busy, please try again later",
	NotConfigured:      "server not configured",
	BackendFailed:      "failed to get AI response",
	Acknowledge:        "Understood. I will act according to those instructions and answer in English.",
	EmptyReply:         "Sorry, I don't understand. Could you rephrase your question?",
	ScrapeNotFound:     "%s not found",
	ScrapeFailed:       "failed to fetch data from %s",
}

var indonesian = Catalog{
	Tag:                "id",
	Language:           "Bahasa Indonesia",
	EmptyMessage:       "Pesan tidak boleh kosong.",
	MessageTooLong:     "Pesan terlalu panjang (maksimal %d karakter). Mohon persingkat pertanyaan Anda.",
	TooManyRequests:    "Terlalu banyak permintaan. Mohon tunggu %d detik lagi sebelum mengirim pesan baru.",
	LimiterUnavailable: "Layanan sedang sibuk. Silakan coba lagi nanti.",
	NotConfigured:      "Server belum dikonfigurasi (Missing API Key).",
	BackendFailed:      "Gagal mendapatkan respon dari AI. Silakan coba lagi nanti.",
	Acknowledge:        "Baik, saya mengerti. Saya akan berperan sesuai instruksi tersebut dan menjawab dalam Bahasa Indonesia.",
	EmptyReply:         "Maaf, saya tidak mengerti. Bisa ulangi pertanyaan Anda?",
	ScrapeNotFound:     "%s tidak ditemukan",
	ScrapeFailed:       "Gagal mengambil data dari %s",
}

var catalogs = map[string]Catalog{
	english.Tag:    english,
	indonesian.Tag: indonesian,
}

// Lookup returns the catalog for tag, falling back to English.
func Lookup(tag string) Catalog {
	if c, ok := catalogs[tag]; ok {
		return c
	}
	return english
}

// Supported reports whether tag has its own catalog.
func Supported(tag string) bool {
	_, ok := catalogs[tag]
	return ok
}

// TooLong formats the message-length error for a limit of max characters.
func (c Catalog) TooLong(max int) string {
	return fmt.Sprintf(c.MessageTooLong, max)
}

// RetryAfter formats the rate-limit error with the seconds until the next slot.
func (c Catalog) RetryAfter(seconds int) string {
	return fmt.Sprintf(c.TooManyRequests, seconds)
}

// NotFound formats the scrape error for a missing resource.
func (c Catalog) NotFound(what string) string {
	return fmt.Sprintf(c.ScrapeNotFound, what)
}

// FetchFailed formats the scrape error for an upstream failure.
func (c Catalog) FetchFailed(source string) string {
	return fmt.Sprintf(c.ScrapeFailed, source)
}
