package usecase

// Chunk splits symbols into consecutive batches of at most size elements.
// Order is preserved, batches never overlap and every batch is non-empty.
// A non-positive size yields a single batch.
func Chunk(symbols []string, size int) [][]string {
	if len(symbols) == 0 {
		return nil
	}
	if size <= 0 || size >= len(symbols) {
		return [][]string{symbols}
	}
	batches := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := min(start+size, len(symbols))
		batches = append(batches, symbols[start:end:end])
	}
	return batches
}
