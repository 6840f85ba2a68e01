package listener

const healthCheckSize = 21

// IsHealthCheck matches the 21 byte udp probe of cloud load balancers,
// "Heal" ... "ck".
func IsHealthCheck(buf []byte) bool {
	return len(buf) == healthCheckSize &&
		buf[0] == 0x48 && buf[1] == 0x65 && buf[2] == 0x61 && buf[3] == 0x6c &&
		buf[19] == 0x63 && buf[20] == 0x6b
}

// HealthCheckProbe builds a probe packet.
func HealthCheckProbe() []byte {
	return []byte("Healthcheck udp check")
}
