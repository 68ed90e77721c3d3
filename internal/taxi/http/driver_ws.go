package taxihttp

import (
	"encoding/json"

	"zulaBack/internal/taxi/dispatch"
	"zulaBack/internal/taxi/system"
	"zulaBack/internal/taxi/ws"
)

type driverMessage struct {
	Available *bool `json:"available"`
}

// DriverMessageHandler lets a connected driver toggle availability with
// {"available": true|false}.
func DriverMessageHandler(sys *system.System, logger dispatch.Logger) ws.MessageHandler {
	return func(driverID int64, msg []byte) {
		var m driverMessage
		if err := json.Unmarshal(msg, &m); err != nil || m.Available == nil {
			logger.Errorf("taxi ws: driver %d: bad message %q", driverID, msg)
			return
		}
		if _, err := sys.SetDriverAvailability(driverID, *m.Available); err != nil {
			logger.Errorf("taxi ws: driver %d availability: %v", driverID, err)
			return
		}
		logger.Infof("taxi ws: driver %d available=%t", driverID, *m.Available)
	}
}
