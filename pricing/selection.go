package pricing

import "github.com/warp/stay-engine/calendar"

// Selection is the caller's current (resort, room type) choice. A room
// type only makes sense for the resort it was picked at, so switching
// resorts clears it.
type Selection struct {
	ResortID calendar.ResortID
	RoomType calendar.RoomType
}

// SelectResort returns the selection for id, dropping the room type when
// the resort changes.
func (s Selection) SelectResort(id calendar.ResortID) Selection {
	if id == s.ResortID {
		return s
	}
	return Selection{ResortID: id}
}

func (s Selection) SelectRoomType(room calendar.RoomType) Selection {
	s.RoomType = room
	return s
}

func (s Selection) HasRoomType() bool { return s.RoomType != "" }
