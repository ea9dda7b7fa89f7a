package constant

// StreamScheme is the custom URI scheme under which preloaded items are addressed.
const StreamScheme = "stream"
