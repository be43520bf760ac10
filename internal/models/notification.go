package models

// NotificationPayload is a webhook message ready for delivery. Attachment is
// sent as a multipart file part and never serialized into the JSON body.
type NotificationPayload struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Attachment *Attachment `json:"-"`
}

// Embed is a styled rich message
type Embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Timestamp   string      `json:"timestamp,omitempty"`
	Image       *EmbedImage `json:"image,omitempty"`
}

// EmbedImage points an embed at an image URL or an attachment:// reference
type EmbedImage struct {
	URL string `json:"url"`
}

// Attachment is a binary file sent alongside the payload
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}
