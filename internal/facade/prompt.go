package facade

// Instruction is sent alongside every captured image. It is not configurable.
const Instruction = `You are an expert AI architectural visualizer. Your task is to subtly enhance the facades of buildings in the provided Madrid street view image. The output image MUST be a direct modification of the input image, maintaining the EXACT same perspective, camera angle, and overall scene composition.

Identify buildings, or the upper residential floors of buildings, whose facades detract from the street because they are outdated, unattractive, or poorly maintained. For those buildings ONLY replace the facade surface materials of the UPPER, RESIDENTIAL FLOORS with high-quality modern designs that sit well with traditional Madrid architecture. This is a visual refresh, not a structural rebuild or a re-render.

Follow these requirements with EXTREME PRECISION:
1. PERSPECTIVE AND COMPOSITION: the output must match the input's perspective, camera angle and field of view. Buildings must not move, change apparent size, or be seen from a different angle.
2. VOLUME AND FEATURES: keep every building's exact shape and volume. Windows, balconies (railings, existing enclosures, open state), doors, cornices and other structural or decorative elements stay in their exact positions, shapes and sizes. Do not add, remove or resize any of them.
3. BALCONY CONSISTENCY PER BUILDING: if a building already has some balconies enclosed (white aluminium, PVC or similar paneling), give every balcony on that same building a consistent, clean, modern enclosure that matches the refreshed facade. If all of a building's balconies are open they must stay open. Balcony structure and railings never change.
4. GROUND FLOOR: the ground floor of every building, including shopfronts, entrances, signage and distinct treatments, must stay identical to the input. Only floors above ground level may change.
5. LIGHTING: lighting on refreshed facades must be natural and consistent with the original image's time of day, shadows, sun direction and intensity.
6. CONTEXTUAL HARMONY: upper-floor materials should suit Madrid's style, elegant and modern while complementing tradition. Use realistic textures such as stone, stucco, wood accents, terracotta and warm beige tones; avoid plain white surfaces.
7. SELECTIVE CHANGE: only refresh upper floors that genuinely detract from the streetscape. Leave well-kept, average or architecturally interesting facades untouched. If no building qualifies, return the original image unchanged.
8. QUALITY: the result must be high quality with realistic textures and seamless integration into the original image.

Return the edited image.`
