package camera

import (
	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/tlv8"
)

func setTLV8Payload(c *characteristic.Bytes, v interface{}) error {
	b, err := tlv8.Marshal(v)
	if err != nil {
		return err
	}
	c.SetValue(b)
	return nil
}
