package pager

import (
	"fmt"
	"strings"

	"github.com/hamed0406/oncallpager/internal/rotation"
)

// Info renders the rotation list and who is on duty now and, when offsetDays
// is non-zero, offsetDays from now.
func (a *App) Info(offsetDays int) (string, error) {
	now := a.now().In(a.loc)
	cur, err := rotation.Resolve(a.dir, now, 0)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	all := a.dir.All()
	fmt.Fprintf(&b, "Pager rotation contains %d contacts:\n", len(all))
	for _, c := range all {
		b.WriteString(c.Phone + "\t" + c.Email + "\n")
	}
	b.WriteString("\nCurrent contacts:")
	b.WriteString("\nPrimary: " + cur.Primary.String())
	b.WriteString("\nBackup:  " + cur.Backup.String())
	b.WriteString("\n\nPlease turn your phones to MAX volume to ensure you receive pages.")

	if offsetDays != 0 {
		later, err := rotation.Resolve(a.dir, now, offsetDays)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n\nContacts %d days from now:", offsetDays)
		b.WriteString("\nPrimary: " + later.Primary.String())
		b.WriteString("\nBackup:  " + later.Backup.String())
	}
	return b.String(), nil
}

const infoHTML = `<html>
  <head></head>
  <body>
    <p>%s</p>
    <p>Pager rotation happens every monday at 00:00.</p>
<p>If the primary / backup contacts are unavailable, please
<ol>
<li>modify the contacts file</li>
<li>test your changes via pager info</li>
<li>check them in and push so they are picked up</li>
<li>run pager mail-info to broadcast the new info</li>
</ol>
</p>

  </body>
</html>`

// InfoHTML is Info wrapped in the notice sent by mail-info.
func (a *App) InfoHTML(offsetDays int) (string, error) {
	text, err := a.Info(offsetDays)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(infoHTML, strings.ReplaceAll(text, "\n", "<br>")), nil
}
