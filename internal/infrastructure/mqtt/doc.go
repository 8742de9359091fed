// Package mqtt provides the MQTT client the LED bridge uses to talk to
// Gray Logic Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees
//   - Subscriptions that survive reconnects
//   - Last Will and Testament (LWT) for offline detection
//
//	Gray Logic Core ↔ MQTT Broker ↔ LED bridge ↔ wifi bridge
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, &mqtt.Will{Topic: topic, Payload: lwt})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("graylogic/command/limitless/#", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) when the broker is not on the same host
//   - Anonymous access is only for local development
package mqtt
