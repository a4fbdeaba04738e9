package ports

// Normalizer cleans an encoding before its signature is built.
type Normalizer interface {
	Normalize(text string) string
}
