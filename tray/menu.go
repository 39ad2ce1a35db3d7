package tray

import (
	"sync"
	"time"

	"github.com/getlantern/systray"
)

var (
	mLast     *systray.MenuItem
	slotItems []*systray.MenuItem
	ready     = make(chan struct{})
	readyOnce sync.Once
)

func onReady() {
	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip(idleTip)

	mu.Lock()
	last := lastMsg
	mu.Unlock()
	if last == "" {
		last = "No actions yet"
	}
	mLast = systray.AddMenuItem(last, "Result of the last action")
	mLast.Disable()
	systray.AddSeparator()

	slotItems = make([]*systray.MenuItem, maxSlots)
	for i := range slotItems {
		slotItems[i] = systray.AddMenuItem("", "Bound action")
		slotItems[i].Disable()
		slotItems[i].Hide()
	}
	systray.AddSeparator()

	mReload := systray.AddMenuItem("Reload Configuration", "Re-read the configuration file")
	mOpen := systray.AddMenuItem("Open Configuration File", "Edit the configuration file")
	mLogin := systray.AddMenuItemCheckbox("Start at Login", "Launch "+appName+" when you log in", loginOn)
	if loginFn == nil {
		mLogin.Hide()
	}
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit "+appName)

	readyOnce.Do(func() { close(ready) })
	refreshSlots()

	go func() {
		for {
			select {
			case <-mReload.ClickedCh:
				if reloadFn != nil {
					reloadFn()
				}
			case <-mOpen.ClickedCh:
				if openConfigFn != nil {
					openConfigFn()
				}
			case <-mLogin.ClickedCh:
				toggleLogin(mLogin)
			case <-mQuit.ClickedCh:
				Quit()
				return
			case <-quitCh:
				return
			}
		}
	}()
}

func toggleLogin(item *systray.MenuItem) {
	if loginFn == nil {
		return
	}
	on := !item.Checked()
	if err := loginFn(on); err != nil {
		SetError("start at login: " + err.Error())
		return
	}
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func onExit() {
	Quit()
}

func isReady() bool {
	select {
	case <-ready:
		return true
	default:
		return false
	}
}

func refreshSlots() {
	if !isReady() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	for i, item := range slotItems {
		if i < len(slots) {
			item.SetTitle(SlotLabel(slots[i]))
			item.Show()
		} else {
			item.Hide()
		}
	}
}

func updateLastAction(msg string) {
	if isReady() {
		mLast.SetTitle(msg)
	}
}

func updateTooltip(msg string) {
	if isReady() {
		systray.SetTooltip(msg)
	}
}

func updateWarningIcon(on bool) {
	if !isReady() {
		return
	}
	if on {
		systray.SetIcon(iconWarnHi)
	} else {
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
	}
}

// flashIcon briefly shows the busy icon after a successful action.
func flashIcon() {
	if !isReady() {
		return
	}
	systray.SetIcon(iconBusyHi)
	time.AfterFunc(300*time.Millisecond, func() {
		mu.Lock()
		warn := warnOn
		mu.Unlock()
		if !warn {
			systray.SetTemplateIcon(iconIdleHi, iconIdle)
		}
	})
}
