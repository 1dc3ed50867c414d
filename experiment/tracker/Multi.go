package tracker

// multi fans episodes out to several Trackers
type multi []Tracker

// Multi returns a Tracker which forwards every call to each of
// trackers in order. The first error is returned, but every Tracker is
// still closed.
func Multi(trackers ...Tracker) Tracker {
	return multi(trackers)
}

func (m multi) Track(e Episode) error {
	for _, t := range m {
		if err := t.Track(e); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
