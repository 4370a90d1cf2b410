package comparison

// ProgressResult describes the change between two sessions.
type ProgressResult struct {
	Pct     float64
	Message string
}

// Progress compares a session against the previous one. A zero previous
// value counts as 100% improvement.
func Progress(last, current float64) ProgressResult {
	pct := 100.0
	if last != 0 {
		pct = (current - last) / last * 100
	}
	pct = finite(pct)

	var msg string
	switch {
	case pct >= 15:
		msg = "Phenomenal — well done!"
	case pct >= 7:
		msg = "Great progress — keep it up!"
	case pct >= 0:
		msg = "You did good — steady gains."
	case pct > -5:
		msg = "Slight dip — you got this."
	default:
		msg = "Tough session — review & bounce back."
	}
	return ProgressResult{Pct: Round2(pct), Message: msg}
}
