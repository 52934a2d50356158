// Package scheduler runs periodic jobs on cron specs with seconds precision
// in UTC. The station uses it for the overdue sweep.
package scheduler
