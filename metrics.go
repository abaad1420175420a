package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warbler_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	SignupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warbler_signups_total",
		Help: "Total successful signups",
	})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	MessagesPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warbler_messages_posted_total",
		Help: "Total warbles successfully posted",
	})

	LikesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_likes_total",
		Help: "Like toggles by action",
	}, []string{"action"})

	FollowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_follows_total",
		Help: "Follow edge changes by action",
	}, []string{"action"})
)

func init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SignupsTotal)
	prometheus.MustRegister(LoginsTotal)
	prometheus.MustRegister(MessagesPosted)
	prometheus.MustRegister(LikesTotal)
	prometheus.MustRegister(FollowsTotal)
}

func likeAction(liked bool) string {
	if liked {
		return "like"
	}
	return "unlike"
}
