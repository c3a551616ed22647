package document

import "golang.org/x/text/unicode/bidi"

// DetectDirection returns the dominant reading direction of a text run
// using the Unicode bidirectional algorithm: the direction covering the
// most characters across the run's bidi segments wins. Empty or fully
// neutral text is reported as left-to-right.
func DetectDirection(s string) TextDirection {
	if s == "" {
		return DirectionLTR
	}

	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return DirectionLTR
	}
	o, err := p.Order()
	if err != nil {
		return DirectionLTR
	}

	var ltr, rtl int
	for i := 0; i < o.NumRuns(); i++ {
		run := o.Run(i)
		n := len([]rune(run.String()))
		if run.Direction() == bidi.RightToLeft {
			rtl += n
		} else {
			ltr += n
		}
	}
	if rtl > ltr {
		return DirectionRTL
	}
	return DirectionLTR
}
