package sandbox

// Isolation policy applied to every mounted frame. Scripts may run and
// same-origin is granted only so local script execution works; top-level
// navigation, popups, and modals stay blocked, and served documents cannot
// be framed by foreign ancestors.
const (
	// SandboxTokens is the iframe sandbox attribute for mounted frames.
	SandboxTokens = "allow-scripts allow-same-origin allow-forms"

	// DocCSP is the Content-Security-Policy header on served documents.
	DocCSP = "frame-ancestors 'self'"

	// DocReferrerPolicy keeps resource URIs out of outbound requests.
	DocReferrerPolicy = "no-referrer"
)
