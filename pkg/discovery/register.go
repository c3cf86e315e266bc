package discovery

import (
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/consul/api"
)

// RegisterService registers this instance in Consul.
func RegisterService(serviceName string, servicePort int, consulAddr string) error {
	config := api.DefaultConfig()
	config.Address = consulAddr
	client, err := api.NewClient(config)
	if err != nil {
		return err
	}

	localIP, err := getOutboundIP()
	if err != nil {
		return err
	}

	serviceID := fmt.Sprintf("%s-%s-%d", serviceName, localIP, servicePort)

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Port:    servicePort,
		Address: localIP,
		Tags:    []string{"techshop", "http"},
		Check: &api.AgentServiceCheck{
			TCP:                            fmt.Sprintf("%s:%d", localIP, servicePort),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return err
	}

	log.Printf("Service Registered: %s (ID: %s) at %s:%d", serviceName, serviceID, localIP, servicePort)
	return nil
}

// getOutboundIP returns the non-loopback IP of this host. Registering
// 127.0.0.1 would make the instance unreachable from other containers.
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
