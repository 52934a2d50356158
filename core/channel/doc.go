// Package channel is the transport between the service and the station
// hardware.
//
// Two inbound streams arrive on separate topics: RFID identity scans and
// comma-separated occupancy vectors. Outbound, the service publishes the unit
// number to unlock on the command topic. MQTT (QoS 1) is the default driver;
// AMQP is available for deployments that bridge the station through RabbitMQ.
//
// Inbound messages are delivered to a single handler goroutine in broker
// order, so the consumer never sees two station events concurrently.
package channel
