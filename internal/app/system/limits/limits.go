// internal/app/system/limits/limits.go
package limits

// Request body size limits. Oversized bodies are rejected before decoding.
const (
	// MaxJSONBody caps ordinary JSON request bodies.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxChatBody caps a chat post. The text itself is further capped
	// by the message store.
	MaxChatBody = 16 << 10 // 16 KB

	// MaxDescriptionLen caps a club description after sanitizing.
	MaxDescriptionLen = 4000
)
