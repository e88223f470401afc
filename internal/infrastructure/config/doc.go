// Package config loads knxipmon settings.
//
// Values are layered: built-in defaults, then the YAML file, then a fixed
// set of KNXIP_* environment variables. Secrets such as the MQTT password,
// InfluxDB token and JWT secret are meant to come from the environment so
// the file can be checked in.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	group := cfg.MulticastGroup() // 224.0.23.12:3671
package config
