package combat

import (
	"fmt"
	"hash/fnv"
)

var tagOutYieldMessages = []string{
	"%s limps back to the %s corner with %d HP remaining, tagging out!",
	"Battered but functional, %s signals the %s corner and tags out at %d HP!",
	"%s slaps the tag for %s and disengages with %d HP!",
}

var tagOutDestructionMessages = []string{
	"%s is down! The %s corner scrambles as the wreck is dragged clear!",
	"Catastrophic failure! %s collapses and %s must send in the reserve!",
}

var tagInMessages = []string{
	"%s storms in for %s at full power, %d HP ready to go!",
	"Fresh steel! %s answers the tag for %s with %d HP!",
	"%s charges out of the %s corner, %d HP and fully charged shields!",
}

// Announcer renders tag-out and tag-in commentary. Template choice is keyed
// off the robot name so replays of the same battle read identically.
type Announcer struct{}

func NewAnnouncer() *Announcer {
	return &Announcer{}
}

func pick(templates []string, key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return templates[int(h.Sum32())%len(templates)]
}

func (a *Announcer) TagOutMessage(robotName, teamLabel, reason string, finalHP int) string {
	if reason == "destruction" {
		return fmt.Sprintf(pick(tagOutDestructionMessages, robotName), robotName, teamLabel)
	}
	return fmt.Sprintf(pick(tagOutYieldMessages, robotName), robotName, teamLabel, finalHP)
}

func (a *Announcer) TagInMessage(robotName, teamLabel string, hp int) string {
	return fmt.Sprintf(pick(tagInMessages, robotName), robotName, teamLabel, hp)
}
