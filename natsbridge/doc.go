// Package natsbridge connects message ports to NATS subjects so graphs can
// exchange control-plane messages with external systems. ToNATS forwards
// messages delivered on its input port to a subject; FromNATS republishes
// subject traffic on its output port. Sample streams never cross the bridge;
// it carries the message side-channel only.
package natsbridge
