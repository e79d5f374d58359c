//go:build windows

package toast

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/Mavwarf/teamsdesk/internal/escape"
)

// showScript returns the PowerShell script that raises a Windows 10+ toast
// through the ToastNotificationManager XML API.
func showScript(title, body, icon string) string {
	t := escape.PowerShell(escape.XML(title))
	b := escape.PowerShell(escape.XML(body))

	iconElem := ""
	if icon != "" {
		fileURI := "file:///" + strings.ReplaceAll(icon, `\`, "/")
		iconElem = fmt.Sprintf(`<image placement="appLogoOverride" src="%s"/>`,
			escape.PowerShell(escape.XML(fileURI)))
	}

	return fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom, ContentType = WindowsRuntime] | Out-Null

$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
$xml.LoadXml('<toast><visual><binding template="ToastGeneric">%s<text>%s</text><text>%s</text></binding></visual></toast>')
$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('{1AC14E77-02E7-4E5D-B744-2EB1AE5198B7}\WindowsPowerShell\v1.0\powershell.exe').Show($toast)
`, iconElem, t, b)
}

// Show displays a Windows toast notification with the application icon.
func Show(title, body, icon string) error {
	bin, err := exec.LookPath("powershell")
	if err != nil {
		return ErrUnavailable
	}
	cmd := exec.Command(bin, "-NoProfile", "-Command", showScript(title, body, icon))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("toast failed: %w\n%s", err, out)
	}
	return nil
}
