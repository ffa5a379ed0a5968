package metrics

import "time"

// ObserveQuery implements query.Observer.
func (r *Registry) ObserveQuery(collection string, scanned, returned int, duration time.Duration, err error) {
	r.queryDuration.WithLabelValues(collection).Observe(duration.Seconds())
	if err != nil {
		r.queryErrorTotal.WithLabelValues(collection).Inc()
		return
	}
	r.queryScanned.WithLabelValues(collection).Observe(float64(scanned))
	r.queryReturned.WithLabelValues(collection).Observe(float64(returned))
}
